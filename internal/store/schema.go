package store

const schema = `
-- Runs table (one CLI invocation)
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT NOT NULL,
    params TEXT NOT NULL
);

-- Images table
CREATE TABLE IF NOT EXISTS images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uri TEXT NOT NULL,
    height INTEGER NOT NULL,
    width INTEGER NOT NULL,
    UNIQUE(uri, height, width)
);

-- Segmentations table (bit-packed label map per method and cluster count)
CREATE TABLE IF NOT EXISTS segmentations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    image_id INTEGER NOT NULL,
    method TEXT NOT NULL,
    k INTEGER NOT NULL,
    score REAL NOT NULL,
    label_width INTEGER NOT NULL,
    labels BLOB NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE,
    FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE,
    UNIQUE(run_id, image_id, method, k)
);

CREATE INDEX IF NOT EXISTS idx_segmentations_run ON segmentations(run_id);
CREATE INDEX IF NOT EXISTS idx_segmentations_method_k ON segmentations(method, k);

CREATE VIEW IF NOT EXISTS scores_detailed AS
SELECT
    s.id,
    s.run_id,
    r.started_at,
    i.uri AS image_uri,
    i.height,
    i.width,
    s.method,
    s.k,
    s.score
FROM segmentations s
JOIN runs r ON s.run_id = r.id
JOIN images i ON s.image_id = i.id;
`
