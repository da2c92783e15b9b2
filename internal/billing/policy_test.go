package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ssnapify/ssnapify-backend/internal/models"
)

func TestDecideCharge(t *testing.T) {
	tests := []struct {
		name string
		role string
		cost int
		want ChargeDecision
	}{
		{name: "admin bypasses any cost", role: models.RoleAdmin, cost: 1000, want: DecisionBypass},
		{name: "regular user is charged", role: models.RoleUser, cost: 1, want: DecisionCharge},
		{name: "zero cost is a bypass", role: models.RoleUser, cost: 0, want: DecisionBypass},
		{name: "unknown role is charged", role: "moderator", cost: 5, want: DecisionCharge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideCharge(tt.role, tt.cost))
		})
	}
}
