package response

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	Active    bool   `json:"active"`
	Role      string `json:"role"`
}

func (u User) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("id", u.ID).Str("email", u.Email).Str("role", u.Role)
}

type Address struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Department string `json:"department"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
	Active     bool   `json:"active"`
}

type PaymentMethod struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	CardType   string `json:"cardType"`
	CardNumber string `json:"cardNumber"`
	HolderName string `json:"holderName"`
	Expiration string `json:"expiration"`
	Primary    bool   `json:"primary"`
	Active     bool   `json:"active"`
}

func lastFour(number string) string {
	digits := strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, number)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// Descriptor is the label sent with an order, e.g. "VISA **** 4242".
func (p PaymentMethod) Descriptor() string {
	return fmt.Sprintf("%s **** %s", strings.ToUpper(p.CardType), lastFour(p.CardNumber))
}

func (p PaymentMethod) Masked() PaymentMethod {
	p.CardNumber = "**** **** **** " + lastFour(p.CardNumber)
	return p
}
