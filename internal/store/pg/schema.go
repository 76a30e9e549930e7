package pg

// Schema is the SQL DDL for the asset store. Nothing in this package
// executes it ([Open] only connects); apply it out of band during
// deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS asset_groups (
    asset_group_id SERIAL PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    description     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS configs (
    config_id       SERIAL PRIMARY KEY,
    asset_group_id  INTEGER NOT NULL REFERENCES asset_groups(asset_group_id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    json_config     TEXT NOT NULL DEFAULT '{}',
    UNIQUE (asset_group_id, name)
);

CREATE TABLE IF NOT EXISTS services (
    service_id      SERIAL PRIMARY KEY,
    asset_group_id  INTEGER NOT NULL REFERENCES asset_groups(asset_group_id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    address         TEXT NOT NULL,
    service_type    TEXT NOT NULL DEFAULT 'None',
    health_status   TEXT NOT NULL DEFAULT 'Disconnected',
    config_id       INTEGER REFERENCES configs(config_id) ON DELETE SET NULL,
    UNIQUE (asset_group_id, address)
);

CREATE TABLE IF NOT EXISTS service_edges (
    input_service_id  INTEGER NOT NULL REFERENCES services(service_id) ON DELETE CASCADE,
    output_service_id INTEGER NOT NULL REFERENCES services(service_id) ON DELETE CASCADE,
    asset_group_id    INTEGER NOT NULL REFERENCES asset_groups(asset_group_id) ON DELETE CASCADE,
    PRIMARY KEY (input_service_id, output_service_id)
);

-- users exists in the original schema for operator-console auth, which
-- this repository does not implement (see SPEC_FULL.md Non-goals); the
-- table is created for migration parity but nothing here reads from it.
CREATE TABLE IF NOT EXISTS users (
    user_id         SERIAL PRIMARY KEY,
    username        TEXT NOT NULL UNIQUE,
    password_hash   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_services_asset_group ON services(asset_group_id);
CREATE INDEX IF NOT EXISTS idx_configs_asset_group ON configs(asset_group_id);
CREATE INDEX IF NOT EXISTS idx_service_edges_asset_group ON service_edges(asset_group_id);
`
