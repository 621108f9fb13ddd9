package domain

// AdminProfile is the decrypted payload of the separately persisted admin
// tier record. It is written by the login flow and read by role checks;
// logout does not touch it.
type AdminProfile struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Subadmin bool   `json:"subadmin"`
}
