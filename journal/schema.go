package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	engine TEXT NOT NULL,
	dataset TEXT NOT NULL,
	config TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	fee REAL NOT NULL,
	fee_basis TEXT NOT NULL,
	sampling TEXT NOT NULL,
	initial_capital REAL NOT NULL,
	final_equity REAL NOT NULL,
	sharpe REAL,
	total_return REAL,
	annualized_return REAL,
	win_rate REAL,
	max_drawdown REAL,
	n_trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	trades_approximate INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	entry_idx INTEGER NOT NULL,
	exit_idx INTEGER NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	pnl REAL NOT NULL,
	forced INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	idx INTEGER NOT NULL,
	equity REAL NOT NULL,
	unrealized_dd REAL NOT NULL,
	realized_dd REAL NOT NULL,
	PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`
