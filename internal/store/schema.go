package store

// schemaSQL is portable between SQLite and Postgres.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS customers (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    email                TEXT NOT NULL UNIQUE,
    phone                TEXT NOT NULL DEFAULT '',
    nationality          TEXT NOT NULL DEFAULT '',
    notes                TEXT NOT NULL DEFAULT '',
    marketing_opt_in     INTEGER NOT NULL DEFAULT 0,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
    id                   TEXT PRIMARY KEY,
    reference            TEXT NOT NULL UNIQUE,
    customer_id          TEXT REFERENCES customers(id) ON DELETE SET NULL,
    guest_name           TEXT NOT NULL DEFAULT '',
    guest_phone          TEXT NOT NULL DEFAULT '',
    guest_email          TEXT NOT NULL DEFAULT '',
    boat                 TEXT NOT NULL DEFAULT '',
    start_date           TEXT,
    end_date             TEXT,
    guests               INTEGER,
    total                REAL,
    amount_paid          REAL NOT NULL DEFAULT 0,
    currency             TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'enquiry',
    payment_status       TEXT NOT NULL DEFAULT 'unpaid',
    source               TEXT NOT NULL DEFAULT '',
    notes                TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS checklists (
    booking_id           TEXT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    item                 TEXT NOT NULL,
    done                 INTEGER NOT NULL DEFAULT 0,
    updated_at           TEXT NOT NULL,
    PRIMARY KEY (booking_id, item)
);

CREATE TABLE IF NOT EXISTS communications (
    id                   TEXT PRIMARY KEY,
    booking_id           TEXT NOT NULL DEFAULT '',
    customer_id          TEXT NOT NULL DEFAULT '',
    channel              TEXT NOT NULL,
    template             TEXT NOT NULL DEFAULT '',
    recipient            TEXT NOT NULL DEFAULT '',
    subject              TEXT NOT NULL DEFAULT '',
    body                 TEXT NOT NULL,
    status               TEXT NOT NULL,
    error                TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS financial_targets (
    year                 INTEGER NOT NULL,
    month                INTEGER NOT NULL,
    revenue              REAL NOT NULL,
    PRIMARY KEY (year, month)
);

CREATE TABLE IF NOT EXISTS automation_runs (
    id                   TEXT PRIMARY KEY,
    workflow             TEXT NOT NULL,
    booking_id           TEXT NOT NULL,
    status               TEXT NOT NULL,
    detail               TEXT NOT NULL DEFAULT '',
    ran_at               TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS app_settings (
    key                  TEXT PRIMARY KEY,
    value                TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_start ON bookings(start_date);
CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings(customer_id);
CREATE INDEX IF NOT EXISTS idx_comms_booking ON communications(booking_id);
CREATE INDEX IF NOT EXISTS idx_runs_workflow ON automation_runs(workflow, booking_id);
`
