package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	accountConstraint = `CREATE CONSTRAINT account_id_unique IF NOT EXISTS FOR (a:Account) REQUIRE a.id IS UNIQUE`

	mergeAccounts = `
		UNWIND $accounts AS account
		MERGE (a:Account {id: account.id})
		SET a.handle = account.handle,
			a.followers = account.followers
	`

	mergeFollows = `
		UNWIND $follows AS follow
		MATCH (f:Account {id: follow.source})
		MATCH (t:Account {id: follow.target})
		MERGE (f)-[r:FOLLOWS]->(t)
		SET r.weight = follow.weight
	`
)

// Connect opens a driver and checks the server is reachable.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}
	return driver, nil
}

// Neo4jExporter mirrors a Graph into Neo4j as (:Account)-[:FOLLOWS]->(:Account).
// Exports are idempotent: accounts are merged on id and edges on their ends.
type Neo4jExporter struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewNeo4jExporter(driver neo4j.DriverWithContext, database string) *Neo4jExporter {
	return &Neo4jExporter{driver: driver, database: database}
}

func (e *Neo4jExporter) Export(ctx context.Context, g *Graph) error {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: e.database,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, accountConstraint, nil)
	if err == nil {
		_, err = res.Consume(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to create account constraint: %w", err)
	}

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, mergeAccounts, map[string]any{"accounts": accountParams(g)}); err != nil {
			return nil, fmt.Errorf("failed to merge accounts: %w", err)
		}
		if _, err := tx.Run(ctx, mergeFollows, map[string]any{"follows": followParams(g)}); err != nil {
			return nil, fmt.Errorf("failed to merge follows: %w", err)
		}
		return nil, nil
	})
	return err
}

func accountParams(g *Graph) []map[string]any {
	out := make([]map[string]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, map[string]any{
			"id":        n.ID.String(),
			"handle":    n.Handle,
			"followers": int64(n.Followers),
		})
	}
	return out
}

func followParams(g *Graph) []map[string]any {
	out := make([]map[string]any, 0, len(g.Edges))
	for _, e := range g.Edges {
		out = append(out, map[string]any{
			"source": e.Source.String(),
			"target": e.Target.String(),
			"weight": int64(e.Weight),
		})
	}
	return out
}
