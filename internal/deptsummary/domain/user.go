package domain

// User is one record of the upstream users collection.
// Only FirstName, LastName, Gender, Age, Hair.Color, Company.Department and
// Address.PostalCode feed the department summary; the rest is carried as-is.
type User struct {
	ID         int     `json:"id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	MaidenName string  `json:"maidenName,omitempty"`
	Age        float64 `json:"age"`
	Gender     string  `json:"gender"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Username   string  `json:"username,omitempty"`
	BirthDate  string  `json:"birthDate,omitempty"`
	Image      string  `json:"image,omitempty"`
	BloodGroup string  `json:"bloodGroup,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Weight     float64 `json:"weight,omitempty"`
	EyeColor   string  `json:"eyeColor,omitempty"`
	Hair       Hair    `json:"hair"`
	IP         string  `json:"ip,omitempty"`
	Address    Address `json:"address"`
	MacAddress string  `json:"macAddress,omitempty"`
	University string  `json:"university,omitempty"`
	Bank       Bank    `json:"bank"`
	Company    Company `json:"company"`
	EIN        string  `json:"ein,omitempty"`
	SSN        string  `json:"ssn,omitempty"`
	UserAgent  string  `json:"userAgent,omitempty"`
}

type Hair struct {
	Color string `json:"color"`
	Type  string `json:"type,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Address struct {
	Address     string      `json:"address,omitempty"`
	City        string      `json:"city,omitempty"`
	State       string      `json:"state,omitempty"`
	StateCode   string      `json:"stateCode,omitempty"`
	PostalCode  string      `json:"postalCode"`
	Country     string      `json:"country,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

type Bank struct {
	CardExpire string `json:"cardExpire,omitempty"`
	CardNumber string `json:"cardNumber,omitempty"`
	CardType   string `json:"cardType,omitempty"`
	Currency   string `json:"currency,omitempty"`
	IBAN       string `json:"iban,omitempty"`
}

type Company struct {
	Department string  `json:"department"`
	Name       string  `json:"name,omitempty"`
	Title      string  `json:"title,omitempty"`
	Address    Address `json:"address"`
}

// FullName joins first and last name with no separator. Two users whose
// names concatenate to the same string share a key.
func (u User) FullName() string {
	return u.FirstName + u.LastName
}

// Department is the grouping key.
func (u User) Department() string {
	return u.Company.Department
}
