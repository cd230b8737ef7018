// Package postgres — migrations.go содержит SQL-миграции схемы.
// SQL встроен в код для упрощения деплоя.
package postgres

// migrations применяются последовательно по номеру версии.
// Никогда не меняйте уже выкатившуюся миграцию — добавляйте новую.
var migrations = []struct {
	version int
	sql     string
}{
	{1, migration001Players},
	{2, migration002Inventory},
	{3, migration003StoneTransactions},
	{4, migration004MapResources},
	{5, migration005CollectionTasks},
	{6, migration006Bosses},
	{7, migration007Sects},
	{8, migration008SectLeaveTime},
}

var migration001Players = `
CREATE TABLE IF NOT EXISTS players (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    nickname VARCHAR(255),
    dao_name VARCHAR(255),
    realm VARCHAR(64) NOT NULL DEFAULT 'Конденсация ци I',
    talent VARCHAR(64),
    cultivation BIGINT NOT NULL DEFAULT 0,
    spirit_stones BIGINT NOT NULL DEFAULT 0 CHECK (spirit_stones >= 0),
    health BIGINT NOT NULL DEFAULT 100,
    max_health BIGINT NOT NULL DEFAULT 100,
    current_map VARCHAR(255) NOT NULL DEFAULT 'Деревня у горы',
    is_hermit BOOLEAN NOT NULL DEFAULT FALSE,
    sect_id BIGINT,
    sect_position VARCHAR(64),
    last_closing_time TIMESTAMPTZ,
    last_battle_time TIMESTAMPTZ,
    last_roll_call_time TIMESTAMPTZ,
    total_closing_count INTEGER NOT NULL DEFAULT 0,
    total_battle_count INTEGER NOT NULL DEFAULT 0,
    total_battle_win_count INTEGER NOT NULL DEFAULT 0,
    total_exp_gained BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_players_user_id ON players(user_id);
CREATE INDEX IF NOT EXISTS idx_players_cultivation ON players(cultivation DESC);
CREATE INDEX IF NOT EXISTS idx_players_current_map ON players(current_map);
`

var migration002Inventory = `
CREATE TABLE IF NOT EXISTS inventory (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    item_id VARCHAR(64) NOT NULL,
    quantity BIGINT NOT NULL CHECK (quantity >= 1),
    obtained_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, item_id)
);
CREATE INDEX IF NOT EXISTS idx_inventory_user_id ON inventory(user_id);
`

var migration003StoneTransactions = `
CREATE TABLE IF NOT EXISTS stone_transactions (
    id BIGSERIAL PRIMARY KEY,
    from_user_id BIGINT REFERENCES players(user_id),
    to_user_id BIGINT REFERENCES players(user_id),
    amount BIGINT NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_stone_tx_from_user ON stone_transactions(from_user_id);
CREATE INDEX IF NOT EXISTS idx_stone_tx_to_user ON stone_transactions(to_user_id);
CREATE INDEX IF NOT EXISTS idx_stone_tx_created_at ON stone_transactions(created_at DESC);
`

var migration004MapResources = `
CREATE TABLE IF NOT EXISTS map_resources (
    map_name VARCHAR(255) NOT NULL,
    resource_name VARCHAR(255) NOT NULL,
    current_quantity BIGINT NOT NULL CHECK (current_quantity >= 0),
    last_refresh_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (map_name, resource_name)
);
`

var migration005CollectionTasks = `
CREATE TABLE IF NOT EXISTS collection_tasks (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    category VARCHAR(32) NOT NULL,
    subject VARCHAR(255) NOT NULL,
    reward_item VARCHAR(64),
    quantity BIGINT NOT NULL,
    start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completion_time TIMESTAMPTZ NOT NULL,
    resolved BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_one_active
    ON collection_tasks(user_id, category, subject) WHERE NOT resolved;
CREATE INDEX IF NOT EXISTS idx_tasks_due
    ON collection_tasks(completion_time) WHERE NOT resolved;
CREATE INDEX IF NOT EXISTS idx_tasks_user ON collection_tasks(user_id);
`

var migration006Bosses = `
CREATE TABLE IF NOT EXISTS world_bosses (
    id UUID PRIMARY KEY,
    template_id VARCHAR(64) NOT NULL,
    name VARCHAR(255) NOT NULL,
    map_name VARCHAR(255) NOT NULL,
    current_hp BIGINT NOT NULL CHECK (current_hp >= 0),
    max_hp BIGINT NOT NULL,
    reward_stones BIGINT NOT NULL DEFAULT 0,
    reward_exp BIGINT NOT NULL DEFAULT 0,
    spawned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS boss_damage (
    boss_id UUID NOT NULL REFERENCES world_bosses(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    damage BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (boss_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_bosses_expires_at ON world_bosses(expires_at);
`

var migration007Sects = `
CREATE TABLE IF NOT EXISTS sects (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) UNIQUE NOT NULL,
    description TEXT,
    founder_id BIGINT REFERENCES players(user_id),
    member_count INTEGER NOT NULL DEFAULT 1,
    contribution BIGINT NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS sect_contributions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    sect_id BIGINT NOT NULL REFERENCES sects(id),
    contribution BIGINT NOT NULL DEFAULT 0,
    last_contribution_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, sect_id)
);
`

// Кулдаун предательства: после выхода из секты вступить заново
// можно только спустя настроенный срок.
var migration008SectLeaveTime = `
ALTER TABLE players ADD COLUMN IF NOT EXISTS last_sect_leave_time TIMESTAMPTZ;
`
