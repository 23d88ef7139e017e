package request

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

type Register struct {
	Name     string `validate:"required,max=100" json:"name"`
	Email    string `validate:"required,email"   json:"email"`
	Password string `validate:"required,min=6"   json:"password"`
}

func (r Register) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", r.Email).Str("name", r.Name)
}

func (r Register) Payload() map[string]string {
	return map[string]string{"name": r.Name, "email": r.Email, "password": r.Password}
}

func (r Register) MarshalJSON() ([]byte, error) {
	r.Password = "***"
	type R Register
	return json.Marshal(R(r))
}

type UpdateProfile struct {
	ID        int64  `                                                json:"id"`
	Name      string `validate:"omitempty,max=100"                    json:"name,omitempty"`
	Phone     string `validate:"omitempty,max=20"                     json:"phone,omitempty"`
	BirthDate string `validate:"omitempty,datetime=2006-01-02"        json:"birthDate,omitempty"`
}

type Address struct {
	UserID     int64  `                              json:"userId"`
	Address    string `validate:"required,max=200"   json:"address"`
	City       string `validate:"required,max=100"   json:"city"`
	Department string `validate:"required,max=100"   json:"department"`
	PostalCode string `validate:"omitempty,max=20"   json:"postalCode,omitempty"`
	Country    string `validate:"required,max=100"   json:"country"`
}

type PaymentMethod struct {
	UserID     int64  `                                     json:"userId"`
	CardType   string `validate:"required,max=30"           json:"cardType"`
	CardNumber string `validate:"required,numeric,min=12,max=19" json:"cardNumber"`
	HolderName string `validate:"required,max=100"          json:"holderName"`
	Expiration string `validate:"required,datetime=01/06"   json:"expiration"`
	Primary    bool   `                                     json:"primary"`
}
