package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hashed, err := HashPassword("correct horse battery", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(hashed, "correct horse battery"); err != nil {
		t.Errorf("ComparePassword rejected the original password: %v", err)
	}
	if err := ComparePassword(hashed, "wrong password"); err == nil {
		t.Error("ComparePassword accepted a wrong password")
	}
}

func TestHashPasswordClampsInvalidCost(t *testing.T) {
	for _, cost := range []int{-1, 0, bcrypt.MaxCost + 1} {
		hashed, err := HashPassword("correct horse battery", cost)
		if err != nil {
			t.Fatalf("HashPassword(cost=%d): %v", cost, err)
		}
		realCost, err := bcrypt.Cost([]byte(hashed))
		if err != nil {
			t.Fatalf("bcrypt.Cost: %v", err)
		}
		if realCost != bcrypt.DefaultCost {
			t.Errorf("cost %d hashed at %d, want default %d", cost, realCost, bcrypt.DefaultCost)
		}
	}
}
