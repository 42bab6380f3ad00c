package database

const schema = `
CREATE TABLE IF NOT EXISTS processed_emails (
    email_id TEXT PRIMARY KEY,
    subject TEXT,
    processed_at DATETIME NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('success', 'failed'))
);

CREATE INDEX IF NOT EXISTS idx_processed_at ON processed_emails(processed_at);
`
