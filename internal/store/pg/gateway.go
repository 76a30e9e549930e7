package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/apierr"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/domain"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/store"
)

// db is the subset of pgx that both *pgxpool.Pool and pgx.Tx satisfy.
// Gateway is built on this so the exact same query methods run whether
// or not they're inside a transaction.
type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Gateway is the pgx/v5-backed store.Gateway.
type Gateway struct {
	pool *pgxpool.Pool
	conn db
}

// New wraps an established pool as a top-level, non-transactional
// Gateway.
func New(pool *pgxpool.Pool) *Gateway {
	return &Gateway{pool: pool, conn: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func wrapQueryErr(component string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apierr.NotFound("not found")
	}
	return apierr.Internal(component+" query failed", err)
}

func (g *Gateway) FindAssetGroup(ctx context.Context, assetGroupID int32) (domain.AssetGroup, error) {
	var a domain.AssetGroup
	err := g.conn.QueryRow(ctx,
		`SELECT asset_group_id, name, description FROM asset_groups WHERE asset_group_id = $1`,
		assetGroupID,
	).Scan(&a.AssetGroupID, &a.Name, &a.Description)
	if err != nil {
		return domain.AssetGroup{}, wrapQueryErr("asset_groups", err)
	}
	return a, nil
}

func (g *Gateway) ServicesForGroup(ctx context.Context, assetGroupID int32) ([]domain.Service, error) {
	rows, err := g.conn.Query(ctx,
		`SELECT service_id, asset_group_id, name, address, service_type, health_status, config_id
		 FROM services WHERE asset_group_id = $1`,
		assetGroupID,
	)
	if err != nil {
		return nil, apierr.Internal("services query failed", err)
	}
	defer rows.Close()

	var out []domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ServiceID, &s.AssetGroupID, &s.Name, &s.Address, &s.ServiceType, &s.Health, &s.ConfigID); err != nil {
			return nil, apierr.Internal("services scan failed", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (g *Gateway) FindServiceByAddress(ctx context.Context, assetGroupID int32, address string) (domain.Service, error) {
	var s domain.Service
	err := g.conn.QueryRow(ctx,
		`SELECT service_id, asset_group_id, name, address, service_type, health_status, config_id
		 FROM services WHERE asset_group_id = $1 AND address = $2`,
		assetGroupID, address,
	).Scan(&s.ServiceID, &s.AssetGroupID, &s.Name, &s.Address, &s.ServiceType, &s.Health, &s.ConfigID)
	if err != nil {
		return domain.Service{}, wrapQueryErr("services", err)
	}
	return s, nil
}

func (g *Gateway) AddressToIDMap(ctx context.Context, assetGroupID int32) (map[string]int32, error) {
	rows, err := g.conn.Query(ctx, `SELECT address, service_id FROM services WHERE asset_group_id = $1`, assetGroupID)
	if err != nil {
		return nil, apierr.Internal("services query failed", err)
	}
	defer rows.Close()

	out := make(map[string]int32)
	for rows.Next() {
		var addr string
		var id int32
		if err := rows.Scan(&addr, &id); err != nil {
			return nil, apierr.Internal("services scan failed", err)
		}
		out[addr] = id
	}
	return out, rows.Err()
}

func (g *Gateway) ConfigsForGroup(ctx context.Context, assetGroupID int32) ([]domain.Config, error) {
	rows, err := g.conn.Query(ctx,
		`SELECT config_id, asset_group_id, name, description, json_config FROM configs WHERE asset_group_id = $1`,
		assetGroupID,
	)
	if err != nil {
		return nil, apierr.Internal("configs query failed", err)
	}
	defer rows.Close()

	var out []domain.Config
	for rows.Next() {
		var c domain.Config
		if err := rows.Scan(&c.ConfigID, &c.AssetGroupID, &c.Name, &c.Description, &c.JSONConfig); err != nil {
			return nil, apierr.Internal("configs scan failed", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (g *Gateway) ConfigNameToIDMap(ctx context.Context, assetGroupID int32) (map[string]int32, error) {
	rows, err := g.conn.Query(ctx, `SELECT name, config_id FROM configs WHERE asset_group_id = $1`, assetGroupID)
	if err != nil {
		return nil, apierr.Internal("configs query failed", err)
	}
	defer rows.Close()

	out := make(map[string]int32)
	for rows.Next() {
		var name string
		var id int32
		if err := rows.Scan(&name, &id); err != nil {
			return nil, apierr.Internal("configs scan failed", err)
		}
		out[name] = id
	}
	return out, rows.Err()
}

func (g *Gateway) EdgesForGroup(ctx context.Context, assetGroupID int32) ([]domain.ServiceEdge, error) {
	rows, err := g.conn.Query(ctx,
		`SELECT input_service_id, output_service_id, asset_group_id FROM service_edges WHERE asset_group_id = $1`,
		assetGroupID,
	)
	if err != nil {
		return nil, apierr.Internal("service_edges query failed", err)
	}
	defer rows.Close()

	var out []domain.ServiceEdge
	for rows.Next() {
		var e domain.ServiceEdge
		if err := rows.Scan(&e.InputServiceID, &e.OutputServiceID, &e.AssetGroupID); err != nil {
			return nil, apierr.Internal("service_edges scan failed", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (g *Gateway) InsertConfigsBulk(ctx context.Context, configs []domain.Config) ([]domain.Config, error) {
	out := make([]domain.Config, len(configs))
	for i, c := range configs {
		err := g.conn.QueryRow(ctx,
			`INSERT INTO configs (asset_group_id, name, description, json_config)
			 VALUES ($1, $2, $3, $4) RETURNING config_id`,
			c.AssetGroupID, c.Name, c.Description, c.JSONConfig,
		).Scan(&c.ConfigID)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, apierr.SyncDuplicate(fmt.Sprintf("duplicate config name %q", c.Name))
			}
			return nil, apierr.Internal("config insert failed", err)
		}
		out[i] = c
	}
	return out, nil
}

func (g *Gateway) UpdateConfig(ctx context.Context, c domain.Config) error {
	tag, err := g.conn.Exec(ctx,
		`UPDATE configs SET name = $1, description = $2, json_config = $3 WHERE config_id = $4`,
		c.Name, c.Description, c.JSONConfig, c.ConfigID,
	)
	if err != nil {
		return apierr.Internal("config update failed", err)
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFound(fmt.Sprintf("config %d not found", c.ConfigID))
	}
	return nil
}

func (g *Gateway) DeleteConfigsByIDs(ctx context.Context, ids []int32) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := g.conn.Exec(ctx, `DELETE FROM configs WHERE config_id = ANY($1)`, ids)
	if err != nil {
		return apierr.Internal("config delete failed", err)
	}
	return nil
}

func (g *Gateway) InsertServicesBulk(ctx context.Context, services []domain.Service) ([]domain.Service, error) {
	out := make([]domain.Service, len(services))
	for i, s := range services {
		if s.Health == "" {
			s.Health = domain.HealthHealthy
		}
		err := g.conn.QueryRow(ctx,
			`INSERT INTO services (asset_group_id, name, address, service_type, health_status, config_id)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING service_id`,
			s.AssetGroupID, s.Name, s.Address, s.ServiceType, s.Health, s.ConfigID,
		).Scan(&s.ServiceID)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, apierr.SyncDuplicate(fmt.Sprintf("duplicate service address %q", s.Address))
			}
			return nil, apierr.Internal("service insert failed", err)
		}
		out[i] = s
	}
	return out, nil
}

// UpdateService updates the sync-owned columns of a service row.
// health_status is intentionally absent from this statement: only
// UpsertHealthyAddress and DisconnectAddress may write it.
func (g *Gateway) UpdateService(ctx context.Context, s domain.Service) error {
	tag, err := g.conn.Exec(ctx,
		`UPDATE services SET name = $1, address = $2, service_type = $3, config_id = $4 WHERE service_id = $5`,
		s.Name, s.Address, s.ServiceType, s.ConfigID, s.ServiceID,
	)
	if err != nil {
		return apierr.Internal("service update failed", err)
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFound(fmt.Sprintf("service %d not found", s.ServiceID))
	}
	return nil
}

func (g *Gateway) DeleteServicesByIDs(ctx context.Context, ids []int32) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := g.conn.Exec(ctx, `DELETE FROM services WHERE service_id = ANY($1)`, ids)
	if err != nil {
		return apierr.Internal("service delete failed", err)
	}
	return nil
}

func (g *Gateway) InsertEdgesBulk(ctx context.Context, edges []domain.ServiceEdge) error {
	for _, e := range edges {
		_, err := g.conn.Exec(ctx,
			`INSERT INTO service_edges (input_service_id, output_service_id, asset_group_id)
			 VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			e.InputServiceID, e.OutputServiceID, e.AssetGroupID,
		)
		if err != nil {
			return apierr.Internal("edge insert failed", err)
		}
	}
	return nil
}

func (g *Gateway) DeleteOutgoingEdges(ctx context.Context, assetGroupID int32, serviceID int32) error {
	_, err := g.conn.Exec(ctx,
		`DELETE FROM service_edges WHERE asset_group_id = $1 AND input_service_id = $2`,
		assetGroupID, serviceID,
	)
	if err != nil {
		return apierr.Internal("edge delete failed", err)
	}
	return nil
}

// UpsertHealthyAddress marks address Healthy, creating a minimal
// placeholder row (name = address, service_type = Input, no config)
// if no service is registered there yet: a client may open a session
// before its service has ever been synced, and connecting is itself
// how such a service becomes known to the store.
func (g *Gateway) UpsertHealthyAddress(ctx context.Context, assetGroupID int32, address string) error {
	_, err := g.conn.Exec(ctx,
		`INSERT INTO services (asset_group_id, name, address, service_type, health_status, config_id)
		 VALUES ($1, $2, $3, $4, $5, NULL)
		 ON CONFLICT (asset_group_id, address) DO UPDATE SET health_status = $5`,
		assetGroupID, address, address, domain.ServiceTypeInput, domain.HealthHealthy,
	)
	if err != nil {
		return apierr.Internal("health upsert failed", err)
	}
	return nil
}

func (g *Gateway) DisconnectAddress(ctx context.Context, assetGroupID int32, address string) error {
	tag, err := g.conn.Exec(ctx,
		`UPDATE services SET health_status = $1 WHERE asset_group_id = $2 AND address = $3`,
		domain.HealthDisconnected, assetGroupID, address,
	)
	if err != nil {
		return apierr.Internal("health update failed", err)
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFound(fmt.Sprintf("service %q not found", address))
	}
	return nil
}

// Tx runs fn inside a single pgx transaction at the default
// ReadCommitted isolation level, committing on success and rolling
// back on any error (including a panic, which is re-raised after
// rollback).
func (g *Gateway) Tx(ctx context.Context, fn func(ctx context.Context, tx store.Gateway) error) error {
	tx, err := g.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return apierr.Internal("begin transaction failed", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	txGateway := &Gateway{pool: g.pool, conn: tx}
	if err := fn(ctx, txGateway); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apierr.Internal("commit transaction failed", err)
	}
	committed = true
	return nil
}

var _ store.Gateway = (*Gateway)(nil)
