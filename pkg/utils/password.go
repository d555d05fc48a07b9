package utils

import "golang.org/x/crypto/bcrypt"

func HashPassword(pw string) string {
	return HashPasswordCost(pw, bcrypt.DefaultCost)
}

// HashPasswordCost exists so tests can use a low cost.
func HashPasswordCost(pw string, cost int) string {
	b, _ := bcrypt.GenerateFromPassword([]byte(pw), cost)
	return string(b)
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
