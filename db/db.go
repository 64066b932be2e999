package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jakelazaroff/activitypub-starter-kit/domain"
	"log"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB is the database struct.
type DB struct {
	db *sql.DB
}

const (
	//Posts
	sqlCreatePostsTable = `CREATE TABLE IF NOT EXISTS posts(
                        id uuid NOT NULL PRIMARY KEY,
                        contents text NOT NULL,
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertPost     = `INSERT INTO posts(id, contents, created_at) VALUES (?, ?, ?)`
	sqlSelectPostById = `SELECT id, contents, created_at FROM posts WHERE id = ?`
	sqlSelectAllPosts = `SELECT id, contents, created_at FROM posts ORDER BY created_at DESC`

	//Followers
	sqlCreateFollowersTable = `CREATE TABLE IF NOT EXISTS followers(
                        actor text NOT NULL,
                        uri text NOT NULL,
                        created_at timestamp default current_timestamp,
                        PRIMARY KEY(actor, uri)
                        )`
	sqlUpsertFollower    = `INSERT INTO followers(actor, uri, created_at) VALUES (?, ?, ?)
                        ON CONFLICT(actor, uri) DO UPDATE SET uri = excluded.uri`
	sqlDeleteFollower    = `DELETE FROM followers WHERE actor = ? AND uri = ?`
	sqlSelectFollowers   = `SELECT actor, uri, created_at FROM followers ORDER BY created_at DESC`

	//Following
	sqlCreateFollowingTable = `CREATE TABLE IF NOT EXISTS following(
                        actor text NOT NULL PRIMARY KEY,
                        uri text NOT NULL,
                        confirmed integer DEFAULT 0,
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertFollowing        = `INSERT INTO following(actor, uri, confirmed, created_at) VALUES (?, ?, 0, ?)`
	sqlSelectFollowingByActor = `SELECT actor, uri, confirmed, created_at FROM following WHERE actor = ?`
	sqlConfirmFollowing       = `UPDATE following SET confirmed = 1 WHERE uri = ?`
	sqlDeleteFollowing        = `DELETE FROM following WHERE actor = ?`
	sqlSelectFollowing        = `SELECT actor, uri, confirmed, created_at FROM following ORDER BY created_at DESC`
)

// Open opens (and if necessary creates) the sqlite database at the given path.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Configure connection pool for concurrent access
	sqldb.SetMaxOpenConns(25)
	sqldb.SetMaxIdleConns(5)
	sqldb.SetConnMaxLifetime(time.Hour)

	var journalMode string
	if err := sqldb.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode); err != nil {
		log.Printf("Warning: Failed to enable WAL mode: %v", err)
	} else {
		log.Printf("Database journal mode: %s", journalMode)
	}

	// Pragmas tuned for a request/response federation workload
	sqldb.Exec("PRAGMA synchronous = NORMAL")
	sqldb.Exec("PRAGMA temp_store = MEMORY")
	sqldb.Exec("PRAGMA busy_timeout = 5000")
	sqldb.Exec("PRAGMA foreign_keys = ON")

	db := &DB{db: sqldb}
	if err := db.CreateDB(); err != nil {
		sqldb.Close()
		return nil, err
	}

	return db, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.db.Close()
}

// CreateDB creates the database schema.
func (db *DB) CreateDB() error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			sqlCreatePostsTable,
			sqlCreateFollowersTable,
			sqlCreateFollowingTable,
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) CreatePost(id uuid.UUID, contents string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertPost, id, contents, time.Now())
		return err
	})
}

func (db *DB) ReadPostById(id uuid.UUID) (*domain.Post, error) {
	row := db.db.QueryRow(sqlSelectPostById, id)
	var post domain.Post
	err := row.Scan(&post.Id, &post.Contents, &post.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	return &post, err
}

func (db *DB) ReadAllPosts() ([]domain.Post, error) {
	rows, err := db.db.Query(sqlSelectAllPosts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post

	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(&post.Id, &post.Contents, &post.CreatedAt); err != nil {
			return posts, err
		}
		posts = append(posts, post)
	}
	if err = rows.Err(); err != nil {
		return posts, err
	}

	return posts, nil
}

// SaveFollower inserts a follower record, updating instead of duplicating
// when the (actor, uri) pair already exists.
func (db *DB) SaveFollower(actor, uri string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpsertFollower, actor, uri, time.Now())
		return err
	})
}

// DeleteFollower removes the follower record matching (actor, uri) and
// reports whether a record was removed.
func (db *DB) DeleteFollower(actor, uri string) (bool, error) {
	var affected int64
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlDeleteFollower, actor, uri)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected > 0, err
}

func (db *DB) ReadAllFollowers() ([]domain.Follower, error) {
	rows, err := db.db.Query(sqlSelectFollowers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var followers []domain.Follower

	for rows.Next() {
		var f domain.Follower
		if err := rows.Scan(&f.Actor, &f.URI, &f.CreatedAt); err != nil {
			return followers, err
		}
		followers = append(followers, f)
	}
	if err = rows.Err(); err != nil {
		return followers, err
	}

	return followers, nil
}

// SaveFollowing creates a pending following record for the given actor.
func (db *DB) SaveFollowing(actor, uri string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertFollowing, actor, uri, time.Now())
		return err
	})
}

// ReadFollowingByActor returns the following record for the actor, or nil
// when none exists.
func (db *DB) ReadFollowingByActor(actor string) (*domain.Following, error) {
	row := db.db.QueryRow(sqlSelectFollowingByActor, actor)
	var f domain.Following
	err := row.Scan(&f.Actor, &f.URI, &f.Confirmed, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ConfirmFollowing marks the following record whose Follow activity id
// matches uri as confirmed. Reports whether a record matched; confirmation is
// one-way, the flag is never reset here.
func (db *DB) ConfirmFollowing(uri string) (bool, error) {
	var affected int64
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlConfirmFollowing, uri)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected > 0, err
}

// DeleteFollowing removes the following record for the actor, if any.
func (db *DB) DeleteFollowing(actor string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteFollowing, actor)
		return err
	})
}

func (db *DB) ReadAllFollowing() ([]domain.Following, error) {
	rows, err := db.db.Query(sqlSelectFollowing)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var following []domain.Following

	for rows.Next() {
		var f domain.Following
		if err := rows.Scan(&f.Actor, &f.URI, &f.Confirmed, &f.CreatedAt); err != nil {
			return following, err
		}
		following = append(following, f)
	}
	if err = rows.Err(); err != nil {
		return following, err
	}

	return following, nil
}

// wrapTransaction runs the given function within a transaction.
func (db *DB) wrapTransaction(f func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("error starting transaction: %s", err)
		return err
	}
	for {
		err = f(tx)
		if err != nil {
			serr, ok := err.(*sqlite.Error)
			if ok && serr.Code() == sqlitelib.SQLITE_BUSY {
				continue
			}
			tx.Rollback()
			log.Printf("error in transaction: %s", err)
			return err
		}
		err = tx.Commit()
		if err != nil {
			log.Printf("error committing transaction: %s", err)
			return err
		}
		break
	}
	return nil
}
