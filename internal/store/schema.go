package store

// Schema DDL. Content tables mirror into FTS5 tables kept in sync by
// triggers; search queries join on rowid.
const (
	createUsers = `CREATE TABLE IF NOT EXISTS users (
    discord_id INTEGER PRIMARY KEY,
    username TEXT NOT NULL,
    email TEXT NOT NULL,
    email_digest TEXT NOT NULL,
    is_admin INTEGER NOT NULL DEFAULT 0,
    joined_at TEXT NOT NULL,
    last_talked TEXT NOT NULL,
    flagged_for_deletion TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_digest ON users(email_digest);`

	createWriteups = `CREATE TABLE IF NOT EXISTS writeups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    author_id INTEGER NOT NULL,
    title TEXT NOT NULL UNIQUE,
    slug TEXT NOT NULL UNIQUE,
    tags TEXT NOT NULL DEFAULT '[]',
    content TEXT NOT NULL,
    private INTEGER NOT NULL DEFAULT 0,
    creation_date TEXT NOT NULL,
    edit_date TEXT NOT NULL
);
CREATE VIRTUAL TABLE IF NOT EXISTS writeups_fts USING fts5(
    title, tags, content,
    content='writeups', content_rowid='id'
);
CREATE TRIGGER IF NOT EXISTS writeups_ai AFTER INSERT ON writeups BEGIN
    INSERT INTO writeups_fts(rowid, title, tags, content)
    VALUES (new.id, new.title, new.tags, new.content);
END;
CREATE TRIGGER IF NOT EXISTS writeups_ad AFTER DELETE ON writeups BEGIN
    INSERT INTO writeups_fts(writeups_fts, rowid, title, tags, content)
    VALUES ('delete', old.id, old.title, old.tags, old.content);
END;
CREATE TRIGGER IF NOT EXISTS writeups_au AFTER UPDATE ON writeups BEGIN
    INSERT INTO writeups_fts(writeups_fts, rowid, title, tags, content)
    VALUES ('delete', old.id, old.title, old.tags, old.content);
    INSERT INTO writeups_fts(rowid, title, tags, content)
    VALUES (new.id, new.title, new.tags, new.content);
END;`

	createPosts = `CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL UNIQUE,
    slug TEXT NOT NULL UNIQUE,
    tags TEXT NOT NULL DEFAULT '[]',
    content TEXT NOT NULL,
    creation_date TEXT NOT NULL,
    edit_date TEXT NOT NULL
);
CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
    title, tags, content,
    content='posts', content_rowid='id'
);
CREATE TRIGGER IF NOT EXISTS posts_ai AFTER INSERT ON posts BEGIN
    INSERT INTO posts_fts(rowid, title, tags, content)
    VALUES (new.id, new.title, new.tags, new.content);
END;
CREATE TRIGGER IF NOT EXISTS posts_ad AFTER DELETE ON posts BEGIN
    INSERT INTO posts_fts(posts_fts, rowid, title, tags, content)
    VALUES ('delete', old.id, old.title, old.tags, old.content);
END;
CREATE TRIGGER IF NOT EXISTS posts_au AFTER UPDATE ON posts BEGIN
    INSERT INTO posts_fts(posts_fts, rowid, title, tags, content)
    VALUES ('delete', old.id, old.title, old.tags, old.content);
    INSERT INTO posts_fts(rowid, title, tags, content)
    VALUES (new.id, new.title, new.tags, new.content);
END;`

	createChallenges = `CREATE TABLE IF NOT EXISTS challenges (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL UNIQUE,
    slug TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL,
    flag TEXT NOT NULL UNIQUE,
    points INTEGER NOT NULL DEFAULT 0,
    hidden INTEGER NOT NULL DEFAULT 0,
    depreciated INTEGER NOT NULL DEFAULT 0,
    creation_date TEXT NOT NULL,
    edit_date TEXT NOT NULL
);
CREATE VIRTUAL TABLE IF NOT EXISTS challenges_fts USING fts5(
    title, content,
    content='challenges', content_rowid='id'
);
CREATE TRIGGER IF NOT EXISTS challenges_ai AFTER INSERT ON challenges BEGIN
    INSERT INTO challenges_fts(rowid, title, content)
    VALUES (new.id, new.title, new.content);
END;
CREATE TRIGGER IF NOT EXISTS challenges_ad AFTER DELETE ON challenges BEGIN
    INSERT INTO challenges_fts(challenges_fts, rowid, title, content)
    VALUES ('delete', old.id, old.title, old.content);
END;
CREATE TRIGGER IF NOT EXISTS challenges_au AFTER UPDATE ON challenges BEGIN
    INSERT INTO challenges_fts(challenges_fts, rowid, title, content)
    VALUES ('delete', old.id, old.title, old.content);
    INSERT INTO challenges_fts(rowid, title, content)
    VALUES (new.id, new.title, new.content);
END;`

	createCompletedChallenges = `CREATE TABLE IF NOT EXISTS completed_challenges (
    discord_id INTEGER NOT NULL,
    challenge_id INTEGER NOT NULL,
    claimed_at TEXT NOT NULL,
    PRIMARY KEY (discord_id, challenge_id),
    FOREIGN KEY (challenge_id) REFERENCES challenges(id) ON DELETE CASCADE
);`

	createTodos = `CREATE TABLE IF NOT EXISTS todos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content TEXT NOT NULL,
    assigned INTEGER,
    deadline TEXT,
    started TEXT NOT NULL,
    completed TEXT,
    cancelled INTEGER NOT NULL DEFAULT 0
);`

	createMachines = `CREATE TABLE IF NOT EXISTS machines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hostname TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL
);`
)

// schemaSQL is the concatenated DDL executed on Open.
var schemaSQL = createUsers + "\n" +
	createWriteups + "\n" +
	createPosts + "\n" +
	createChallenges + "\n" +
	createCompletedChallenges + "\n" +
	createTodos + "\n" +
	createMachines
