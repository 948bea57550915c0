package database

// schema is applied on every boot; every statement is IF NOT EXISTS.
const schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

-- Crew accounts
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    name TEXT NOT NULL,
    rank TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT 'crew' CHECK (role IN ('crew', 'admin', 'super_admin')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Vessels a crew member has served on
CREATE TABLE IF NOT EXISTS vessels (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    imo_number TEXT,
    flag_state TEXT,
    gross_tonnage INTEGER,
    length_metres NUMERIC(6,2),
    vessel_type TEXT NOT NULL DEFAULT 'motor_yacht',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vessels_user_id ON vessels(user_id);

-- One state per (crew, vessel, day)
CREATE TABLE IF NOT EXISTS state_logs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    vessel_id UUID NOT NULL REFERENCES vessels(id) ON DELETE CASCADE,
    log_date DATE NOT NULL,
    state TEXT NOT NULL CHECK (state IN ('underway', 'at_anchor', 'in_port', 'on_leave', 'in_yard')),
    auto_filled BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, vessel_id, log_date)
);

CREATE INDEX IF NOT EXISTS idx_state_logs_series ON state_logs(user_id, vessel_id, log_date);

-- Jurisdictions tracked for day-use limits
CREATE TABLE IF NOT EXISTS visa_areas (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    area_name TEXT NOT NULL,
    rule_type TEXT NOT NULL CHECK (rule_type IN ('fixed', 'rolling')),
    days_allowed INTEGER NOT NULL CHECK (days_allowed > 0),
    period_days INTEGER CHECK (period_days IS NULL OR period_days > 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, area_name)
);

CREATE TABLE IF NOT EXISTS visa_entries (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    area_id UUID NOT NULL REFERENCES visa_areas(id) ON DELETE CASCADE,
    entry_date DATE NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (area_id, entry_date)
);

-- Signed testimonials / discharge book scans
CREATE TABLE IF NOT EXISTS testimonials (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    vessel_id UUID REFERENCES vessels(id) ON DELETE SET NULL,
    file_url TEXT NOT NULL,
    file_name TEXT NOT NULL,
    file_size BIGINT NOT NULL,
    file_type TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    type TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read);

CREATE TABLE IF NOT EXISTS activity_log (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID,
    action TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    details JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
