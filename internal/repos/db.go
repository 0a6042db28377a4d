package repos

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"jamde/internal/domain"
)

// TimeLayout is the fixed-width UTC layout stored in every *_at column, so string order
// matches time order on both drivers.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

func now() string { return time.Now().UTC().Format(TimeLayout) }

// Driver picks the database/sql driver for dsn: lib/pq for postgres URLs, sqlite otherwise.
func Driver(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// OpenDB connects, creates the schema and seeds demo data when the catalog is empty.
func OpenDB(dsn string) (*sqlx.DB, error) {
	driver := Driver(dsn)
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: keeps :memory: databases alive and serializes writers
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if err := seedUsers(db); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return db, nil
}

// WithTx runs fn inside a transaction, committing only when fn returns nil.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

const schema = `
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
  compare_at_price NUMERIC(12,2),
  sku TEXT NOT NULL DEFAULT '',
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  active BOOLEAN NOT NULL DEFAULT TRUE,
  featured BOOLEAN NOT NULL DEFAULT FALSE,
  images_json TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'CUSTOMER' CHECK (role IN ('CUSTOMER','ADMIN')),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL,
  last_seen TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

CREATE TABLE IF NOT EXISTS addresses(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  full_name TEXT NOT NULL,
  address_line1 TEXT NOT NULL,
  address_line2 TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL,
  state TEXT NOT NULL DEFAULT '',
  postal_code TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  is_default BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_addresses_user ON addresses(user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_addresses_one_default ON addresses(user_id) WHERE is_default;

CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
  status TEXT NOT NULL DEFAULT 'PENDING'
    CHECK (status IN ('PENDING','PROCESSING','SHIPPED','DELIVERED','CANCELLED','REFUNDED')),
  payment_status TEXT NOT NULL DEFAULT 'PENDING'
    CHECK (payment_status IN ('PENDING','PAID','FAILED','REFUNDED')),
  subtotal NUMERIC(12,2) NOT NULL,
  tax NUMERIC(12,2) NOT NULL,
  shipping_cost NUMERIC(12,2) NOT NULL,
  total NUMERIC(12,2) NOT NULL,
  shipping_json TEXT NOT NULL DEFAULT '{}',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price NUMERIC(12,2) NOT NULL,
  PRIMARY KEY (order_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);

CREATE TABLE IF NOT EXISTS wishlists(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS wishlist_items(
  wishlist_id TEXT NOT NULL REFERENCES wishlists(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL,
  PRIMARY KEY (wishlist_id, product_id)
);

CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  comment TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  UNIQUE (product_id, user_id)
);

CREATE TABLE IF NOT EXISTS seller_applications(
  id TEXT PRIMARY KEY,
  business_name TEXT NOT NULL,
  owner_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT NOT NULL,
  craft_type TEXT NOT NULL,
  business_description TEXT NOT NULL,
  years_experience TEXT NOT NULL,
  location TEXT NOT NULL,
  website TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING','REVIEWED','APPROVED','REJECTED')),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS carts(
  session_id TEXT NOT NULL,
  slot TEXT NOT NULL,
  payload TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (session_id, slot)
);
`

func ensureSchema(db *sqlx.DB) error {
	if db.DriverName() == "sqlite" {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return err
		}
	}
	_, err := db.Exec(schema)
	return err
}

type seedProduct struct {
	ID, Category, Name, Description, Price, Compare string
	Stock                                          int
	Active, Featured                               bool
}

// Seeded catalog. prd-007 is inactive and prd-006 sits under the low-stock threshold.
var seedProducts = []seedProduct{
	{"prd-001", "cat-textiles", "Kente Cloth Scarf", "Hand-woven strip cloth scarf.", "10.00", "", 5, true, true},
	{"prd-002", "cat-textiles", "Adire Indigo Throw", "Tie-dyed cotton throw.", "45.50", "55.00", 12, true, false},
	{"prd-003", "cat-pottery", "Terracotta Water Pot", "Wheel-thrown clay pot.", "32.00", "", 20, true, true},
	{"prd-004", "cat-jewelry", "Brass Cuff Bracelet", "Lost-wax cast brass.", "18.75", "", 40, true, false},
	{"prd-005", "cat-woodwork", "Carved Serving Bowl", "Mahogany bowl, food safe finish.", "27.00", "30.00", 15, true, false},
	{"prd-006", "cat-jewelry", "Trade Bead Necklace", "Recycled glass beads.", "12.50", "", 3, true, false},
	{"prd-007", "cat-woodwork", "Talking Drum", "Seasonal item, currently unavailable.", "80.00", "", 6, false, false},
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products")

	ts := now()
	return WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		for _, c := range [][2]string{
			{"cat-textiles", "Textiles"}, {"cat-pottery", "Pottery"},
			{"cat-jewelry", "Jewelry"}, {"cat-woodwork", "Woodwork"},
		} {
			if _, err := tx.Exec(tx.Rebind(`INSERT INTO categories(id,name,slug,created_at) VALUES(?,?,?,?)`),
				c[0], c[1], strings.ToLower(c[1]), ts); err != nil {
				return err
			}
		}
		for _, p := range seedProducts {
			var compare any
			if p.Compare != "" {
				compare = p.Compare
			}
			if _, err := tx.Exec(tx.Rebind(`
				INSERT INTO products(id,category_id,name,slug,description,price,compare_at_price,sku,stock,active,featured,images_json,created_at)
				VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`),
				p.ID, p.Category, p.Name, domain.Slugify(p.Name), p.Description, p.Price, compare,
				strings.ToUpper(p.ID), p.Stock, p.Active, p.Featured,
				`["products/`+p.ID+`/main.jpg"]`, ts); err != nil {
				return err
			}
		}
		return nil
	})
}

// seedUsers ensures one ADMIN and two CUSTOMERs exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role string
	}
	users := []u{
		{"u-admin", "admin@jamde.test", "Admin", "ADMIN"},
		{"u-ada", "ada@jamde.test", "Ada", "CUSTOMER"},
		{"u-kofi", "kofi@jamde.test", "Kofi", "CUSTOMER"},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	ts := now()
	return WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		for _, x := range users {
			if _, err := tx.Exec(tx.Rebind(`
				INSERT INTO users(id,email,name,password_hash,role,created_at)
				VALUES(?,?,?,?,?,?)
				ON CONFLICT(email) DO NOTHING`), x.ID, x.Email, x.Name, string(hash), x.Role, ts); err != nil {
				return err
			}
		}
		return nil
	})
}
