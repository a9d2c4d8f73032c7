package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	tech_stack  TEXT NOT NULL DEFAULT '',
	repo_owner  TEXT NOT NULL DEFAULT '',
	repo_name   TEXT NOT NULL DEFAULT '',
	archived    INTEGER NOT NULL DEFAULT 0 CHECK(archived IN (0, 1)),
	sort_order  INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS prds (
	project_id TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
	content    TEXT NOT NULL,
	version    INTEGER NOT NULL DEFAULT 1,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS roadmap_items (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'planned'
		CHECK(status IN ('planned', 'in_progress', 'completed')),
	phase       TEXT NOT NULL DEFAULT 'backlog'
		CHECK(phase IN ('mvp', 'phase_2', 'backlog')),
	milestone   INTEGER NOT NULL DEFAULT 0 CHECK(milestone IN (0, 1)),
	color       TEXT NOT NULL,
	position    INTEGER NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'todo'
		CHECK(status IN ('todo', 'in_progress', 'done', 'blocked')),
	priority        TEXT NOT NULL DEFAULT 'medium'
		CHECK(priority IN ('low', 'medium', 'high', 'urgent')),
	estimated_hours REAL,
	due_date        TEXT,
	tags            TEXT NOT NULL DEFAULT '[]',
	dependencies    TEXT NOT NULL DEFAULT '[]',
	position        INTEGER NOT NULL,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS deployment_items (
	id                 TEXT PRIMARY KEY,
	project_id         TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title              TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL DEFAULT 'general',
	platform           TEXT NOT NULL DEFAULT 'general',
	environment        TEXT NOT NULL DEFAULT 'production',
	status             TEXT NOT NULL DEFAULT 'todo',
	priority           TEXT NOT NULL DEFAULT 'medium',
	is_required        INTEGER NOT NULL DEFAULT 1 CHECK(is_required IN (0, 1)),
	verification_notes TEXT NOT NULL DEFAULT '',
	helpful_links      TEXT NOT NULL DEFAULT '[]',
	position           INTEGER NOT NULL,
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id);
CREATE INDEX IF NOT EXISTS idx_roadmap_project ON roadmap_items(project_id, position);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id, position);
CREATE INDEX IF NOT EXISTS idx_deployment_project ON deployment_items(project_id, position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	author_id  TEXT NOT NULL,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	tool       TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS votes (
	post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	vote_type  TEXT NOT NULL CHECK(vote_type IN ('upvote', 'downvote')),
	created_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, post_id)
);

CREATE TABLE IF NOT EXISTS saves (
	post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, post_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	author_id  TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at);
CREATE INDEX IF NOT EXISTS idx_posts_tool ON posts(tool);
CREATE INDEX IF NOT EXISTS idx_votes_post ON votes(post_id);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
CREATE TABLE IF NOT EXISTS issue_links (
	id           TEXT PRIMARY KEY,
	task_id      TEXT NOT NULL UNIQUE REFERENCES tasks(id) ON DELETE CASCADE,
	project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	repo_owner   TEXT NOT NULL,
	repo_name    TEXT NOT NULL,
	issue_number INTEGER NOT NULL,
	issue_url    TEXT NOT NULL DEFAULT '',
	issue_state  TEXT NOT NULL DEFAULT 'open' CHECK(issue_state IN ('open', 'closed')),
	link_type    TEXT NOT NULL DEFAULT 'created' CHECK(link_type IN ('created', 'referenced')),
	created_at   DATETIME NOT NULL,
	synced_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issue_links_project ON issue_links(project_id);
CREATE INDEX IF NOT EXISTS idx_issue_links_state ON issue_links(issue_state);

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
