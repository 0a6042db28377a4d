package domain

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool { return r == RoleCustomer || r == RoleAdmin }

type User struct {
	ID        string `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	Name      string `db:"name" json:"name"`
	Hash      string `db:"password_hash" json:"-"`
	Role      Role   `db:"role" json:"role"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

// Guest reports whether the account was created by checkout and has no password.
func (u User) Guest() bool { return u.Hash == "" }

// Principal is the authenticated caller, resolved once when a request enters.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) Authenticated() bool { return p.UserID != "" }
func (p Principal) IsAdmin() bool       { return p.UserID != "" && p.Role == RoleAdmin }

type Address struct {
	ID           string `db:"id" json:"id"`
	UserID       string `db:"user_id" json:"userId"`
	FullName     string `db:"full_name" json:"fullName"`
	AddressLine1 string `db:"address_line1" json:"addressLine1"`
	AddressLine2 string `db:"address_line2" json:"addressLine2,omitempty"`
	City         string `db:"city" json:"city"`
	State        string `db:"state" json:"state,omitempty"`
	PostalCode   string `db:"postal_code" json:"postalCode,omitempty"`
	Country      string `db:"country" json:"country"`
	Phone        string `db:"phone" json:"phone,omitempty"`
	IsDefault    bool   `db:"is_default" json:"isDefault"`
	CreatedAt    string `db:"created_at" json:"createdAt"`
}
