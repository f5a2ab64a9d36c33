package registration

import "time"

const TimestampLayout = "2006-01-02 15:04:05"

// Column positions of a registration row in the store.
const (
	colFirstName = iota
	colLastName
	colPhone
	colAddress
	colCode
	colTimestamp
)

// Request is the payload submitted by the promo form.
type Request struct {
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion"`
}

type Record struct {
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	DiscountCode string
	RegisteredAt time.Time
}

// Row lays the record out in store column order.
func (r Record) Row(loc *time.Location) []string {
	return []string{
		r.FirstName,
		r.LastName,
		r.Phone,
		r.Address,
		r.DiscountCode,
		r.RegisteredAt.In(loc).Format(TimestampLayout),
	}
}

type Outcome int

const (
	Created Outcome = iota
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome      Outcome
	Name         string
	DiscountCode string
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
