package user

// User is the stored user record.
type User struct {
	OrganizationID string `json:"organizationId" bson:"organizationId"`
	UserID         string `json:"userId" bson:"userId"`
	Name           string `json:"name,omitempty" bson:"name,omitempty"`
	Email          string `json:"email,omitempty" bson:"email,omitempty"`
	PhotoURL       string `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	Color          string `json:"color,omitempty" bson:"color,omitempty"`
	TextColor      string `json:"textColor,omitempty" bson:"textColor,omitempty"`
	Initial        string `json:"initial,omitempty" bson:"initial,omitempty"`
	IsAdmin        bool   `json:"isAdmin,omitempty" bson:"isAdmin,omitempty"`
}

// Ref is the partial user embedded in comments and reactions.
type Ref struct {
	UserID   string `json:"userId" bson:"userId"`
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
	Email    string `json:"email,omitempty" bson:"email,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
}
