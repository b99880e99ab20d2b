package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telewarp/models"
)

// Postgres is the relational backing. Logical key prefixes map onto
// dedicated tables: user:* -> users, session:* -> sessions,
// project:* -> projects, the counter -> counters, and the recency
// list -> recent_projects with an explicit ordinal. The per-user
// project index is derived from projects.author rather than stored,
// so puts and deletes under user_projects:* are no-ops here.
type Postgres struct {
	Pool *pgxpool.Pool
}

// ConnectPostgres opens a pool against databaseURL and pings it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Using postgres database")
	return &Postgres{Pool: pool}, nil
}

// Schema creates the tables if they do not exist. Also used by
// cmd/migrate and the integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	salt TEXT NOT NULL,
	hash TEXT NOT NULL,
	joined BIGINT NOT NULL,
	bio TEXT DEFAULT '',
	featured_project_id TEXT,
	avatar_file TEXT
);

CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	expires BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	author TEXT DEFAULT '',
	name TEXT NOT NULL,
	description TEXT DEFAULT '',
	lang_id TEXT NOT NULL,
	metadata JSONB NOT NULL,
	thumbnail BOOLEAN DEFAULT false,
	created_at BIGINT NOT NULL,
	flagged BOOLEAN DEFAULT false
);

CREATE INDEX IF NOT EXISTS idx_projects_author ON projects(author);
CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);

CREATE TABLE IF NOT EXISTS counters (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recent_projects (
	project_id TEXT PRIMARY KEY,
	added_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recent_projects_added_at ON recent_projects(added_at);
`

// Migrate applies the schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func splitKey(key string) (prefix, id string) {
	i := strings.Index(key, ":")
	if i < 0 {
		return key, ""
	}
	return key[:i+1], key[i+1:]
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	if key == CounterKey {
		var value string
		err := p.Pool.QueryRow(ctx, `SELECT value FROM counters WHERE name = $1`, CounterKey).Scan(&value)
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get counter: %w", err)
		}
		return json.Marshal(value)
	}

	if key == RecentKey {
		rows, err := p.Pool.Query(ctx, `SELECT project_id FROM recent_projects ORDER BY added_at ASC`)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent projects: %w", err)
		}
		defer rows.Close()

		ids := []string{}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, fmt.Errorf("failed to scan recent project: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating recent projects: %w", err)
		}
		return json.Marshal(ids)
	}

	prefix, id := splitKey(key)
	switch prefix {
	case UserPrefix:
		var u models.User
		var featured, avatar *string
		err := p.Pool.QueryRow(ctx,
			`SELECT username, salt, hash, joined, bio, featured_project_id, avatar_file FROM users WHERE username = $1`, id).
			Scan(&u.Username, &u.Salt, &u.Hash, &u.Joined, &u.Bio, &featured, &avatar)
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if featured != nil {
			u.FeaturedProjectID = *featured
		}
		if avatar != nil {
			u.AvatarFile = *avatar
		}
		return json.Marshal(u)

	case SessionPrefix:
		var s models.Session
		err := p.Pool.QueryRow(ctx,
			`SELECT username, expires FROM sessions WHERE token = $1`, id).
			Scan(&s.Username, &s.Expires)
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		return json.Marshal(s)

	case ProjectPrefix:
		pr, err := p.getProject(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(pr)
	}

	return nil, fmt.Errorf("unsupported key pattern: %s", key)
}

func (p *Postgres) getProject(ctx context.Context, id string) (*models.Project, error) {
	var pr models.Project
	err := p.Pool.QueryRow(ctx,
		`SELECT id, author, name, description, lang_id, metadata, thumbnail, created_at, flagged FROM projects WHERE id = $1`, id).
		Scan(&pr.ID, &pr.Author, &pr.Name, &pr.Description, &pr.LangID, &pr.Metadata, &pr.Thumbnail, &pr.CreatedAt, &pr.Flagged)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &pr, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	if key == CounterKey {
		var v string
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("malformed counter value: %w", err)
		}
		_, err := p.Pool.Exec(ctx, `
			INSERT INTO counters (name, value) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value
		`, CounterKey, v)
		if err != nil {
			return fmt.Errorf("failed to put counter: %w", err)
		}
		return nil
	}

	if key == RecentKey {
		var ids []string
		if err := json.Unmarshal(value, &ids); err != nil {
			return fmt.Errorf("malformed recent list: %w", err)
		}
		return p.replaceRecent(ctx, ids)
	}

	prefix, id := splitKey(key)
	switch prefix {
	case UserPrefix:
		var u models.User
		if err := json.Unmarshal(value, &u); err != nil {
			return fmt.Errorf("malformed user record: %w", err)
		}
		_, err := p.Pool.Exec(ctx, `
			INSERT INTO users (username, salt, hash, joined, bio, featured_project_id, avatar_file)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
			ON CONFLICT (username) DO UPDATE SET
				salt = EXCLUDED.salt,
				hash = EXCLUDED.hash,
				joined = EXCLUDED.joined,
				bio = EXCLUDED.bio,
				featured_project_id = EXCLUDED.featured_project_id,
				avatar_file = EXCLUDED.avatar_file
		`, id, u.Salt, u.Hash, u.Joined, u.Bio, u.FeaturedProjectID, u.AvatarFile)
		if err != nil {
			return fmt.Errorf("failed to put user: %w", err)
		}
		return nil

	case SessionPrefix:
		var s models.Session
		if err := json.Unmarshal(value, &s); err != nil {
			return fmt.Errorf("malformed session record: %w", err)
		}
		_, err := p.Pool.Exec(ctx, `
			INSERT INTO sessions (token, username, expires) VALUES ($1, $2, $3)
			ON CONFLICT (token) DO UPDATE SET
				username = EXCLUDED.username,
				expires = EXCLUDED.expires
		`, id, s.Username, s.Expires)
		if err != nil {
			return fmt.Errorf("failed to put session: %w", err)
		}
		return nil

	case ProjectPrefix:
		var pr models.Project
		if err := json.Unmarshal(value, &pr); err != nil {
			return fmt.Errorf("malformed project record: %w", err)
		}
		_, err := p.Pool.Exec(ctx, `
			INSERT INTO projects (id, author, name, description, lang_id, metadata, thumbnail, created_at, flagged)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				author = EXCLUDED.author,
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				lang_id = EXCLUDED.lang_id,
				metadata = EXCLUDED.metadata,
				thumbnail = EXCLUDED.thumbnail,
				created_at = EXCLUDED.created_at,
				flagged = EXCLUDED.flagged
		`, id, pr.Author, pr.Name, pr.Description, pr.LangID, pr.Metadata, pr.Thumbnail, pr.CreatedAt, pr.Flagged)
		if err != nil {
			return fmt.Errorf("failed to put project: %w", err)
		}
		return nil

	case UserProjectsPrefix:
		// Derived from projects.author, nothing to store.
		return nil
	}

	return fmt.Errorf("unsupported key pattern: %s", key)
}

func (p *Postgres) replaceRecent(ctx context.Context, ids []string) error {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM recent_projects`); err != nil {
		return fmt.Errorf("failed to clear recent projects: %w", err)
	}
	for i, id := range ids {
		if _, err := tx.Exec(ctx,
			`INSERT INTO recent_projects (project_id, added_at) VALUES ($1, $2)`, id, i); err != nil {
			return fmt.Errorf("failed to insert recent project: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	prefix, id := splitKey(key)

	var query string
	switch prefix {
	case UserPrefix:
		query = `DELETE FROM users WHERE username = $1`
	case SessionPrefix:
		query = `DELETE FROM sessions WHERE token = $1`
	case ProjectPrefix:
		query = `DELETE FROM projects WHERE id = $1`
	case UserProjectsPrefix:
		return nil
	default:
		return fmt.Errorf("unsupported key pattern: %s", key)
	}

	if _, err := p.Pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Iterate supports the two prefix scans the application performs:
// all projects (moderation listing) and one user's project ids. Both
// are served from the projects table ordered by id, which matches the
// lexicographic key order of the embedded backing.
func (p *Postgres) Iterate(ctx context.Context, start, end string, fn func(key string, value []byte) error) error {
	if start == ProjectPrefix && end == PrefixEnd(ProjectPrefix) {
		rows, err := p.Pool.Query(ctx,
			`SELECT id, author, name, description, lang_id, metadata, thumbnail, created_at, flagged FROM projects ORDER BY id ASC`)
		if err != nil {
			return fmt.Errorf("failed to iterate projects: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var pr models.Project
			if err := rows.Scan(&pr.ID, &pr.Author, &pr.Name, &pr.Description, &pr.LangID, &pr.Metadata, &pr.Thumbnail, &pr.CreatedAt, &pr.Flagged); err != nil {
				return fmt.Errorf("failed to scan project: %w", err)
			}
			value, err := json.Marshal(pr)
			if err != nil {
				return err
			}
			if err := fn(ProjectPrefix+pr.ID, value); err != nil {
				return err
			}
		}
		return rows.Err()
	}

	if strings.HasPrefix(start, UserProjectsPrefix) {
		author := strings.TrimSuffix(strings.TrimPrefix(start, UserProjectsPrefix), ":")
		rows, err := p.Pool.Query(ctx,
			`SELECT id FROM projects WHERE author = $1 ORDER BY id ASC`, author)
		if err != nil {
			return fmt.Errorf("failed to iterate user projects: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("failed to scan project id: %w", err)
			}
			value, err := json.Marshal(id)
			if err != nil {
				return err
			}
			if err := fn(UserProjectsPrefix+author+":"+id, value); err != nil {
				return err
			}
		}
		return rows.Err()
	}

	return fmt.Errorf("unsupported iteration range: %s", start)
}

func (p *Postgres) Close() error {
	p.Pool.Close()
	return nil
}
