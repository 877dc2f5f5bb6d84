package graph

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"
)

type gexfFile struct {
	XMLName xml.Name  `xml:"gexf"`
	XMLNS   string    `xml:"xmlns,attr"`
	Version string    `xml:"version,attr"`
	Meta    gexfMeta  `xml:"meta"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfMeta struct {
	LastModified string `xml:"lastmodifieddate,attr"`
	Creator      string `xml:"creator"`
	Description  string `xml:"description"`
}

type gexfGraph struct {
	DefaultEdgeType  string               `xml:"defaultedgetype,attr"`
	Mode             string               `xml:"mode,attr"`
	AttributeClasses []gexfAttributeClass `xml:"attributes"`
	Nodes            gexfNodes            `xml:"nodes"`
	Edges            gexfEdges            `xml:"edges"`
}

type gexfAttributeClass struct {
	Class      string          `xml:"class,attr"`
	Attributes []gexfAttribute `xml:"attribute"`
}

type gexfAttribute struct {
	ID    string `xml:"id,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type gexfNodes struct {
	Nodes []gexfNode `xml:"node"`
}

type gexfNode struct {
	ID        string        `xml:"id,attr"`
	Label     string        `xml:"label,attr"`
	AttValues gexfAttValues `xml:"attvalues"`
}

type gexfAttValues struct {
	AttValues []gexfAttValue `xml:"attvalue"`
}

type gexfAttValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

type gexfEdges struct {
	Edges []gexfEdge `xml:"edge"`
}

type gexfEdge struct {
	ID     string `xml:"id,attr"`
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
	Weight string `xml:"weight,attr,omitempty"`
}

// WriteGEXF writes g as a directed GEXF 1.3 document for Gephi.
func WriteGEXF(w io.Writer, g *Graph, modified time.Time) error {
	nodes := make([]gexfNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, gexfNode{
			ID:    n.ID.String(),
			Label: n.Handle,
			AttValues: gexfAttValues{AttValues: []gexfAttValue{
				{For: "followers", Value: strconv.Itoa(n.Followers)},
			}},
		})
	}

	edges := make([]gexfEdge, 0, len(g.Edges))
	for i, e := range g.Edges {
		edges = append(edges, gexfEdge{
			ID:     fmt.Sprintf("e%d", i),
			Source: e.Source.String(),
			Target: e.Target.String(),
			Weight: strconv.Itoa(e.Weight),
		})
	}

	doc := gexfFile{
		XMLNS:   "http://gexf.net/1.3",
		Version: "1.3",
		Meta: gexfMeta{
			LastModified: modified.Format("2006-01-02"),
			Creator:      "iceplot",
			Description:  fmt.Sprintf("Icelandic follower graph: %d accounts, %d follows", g.NodeCount(), g.EdgeCount()),
		},
		Graph: gexfGraph{
			DefaultEdgeType: "directed",
			Mode:            "static",
			AttributeClasses: []gexfAttributeClass{
				{
					Class: "node",
					Attributes: []gexfAttribute{
						{ID: "followers", Title: "followers", Type: "integer"},
					},
				},
			},
			Nodes: gexfNodes{Nodes: nodes},
			Edges: gexfEdges{Edges: edges},
		},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
