package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuyCommand(t *testing.T) {
	tests := []struct {
		name    string
		cmd     BuyCommand
		want    string
		wantErr bool
	}{
		{"valid", BuyCommand{TokenID: tokA, Amount: "0.1"}, "/buy " + tokA + " 0.1", false},
		{"empty token", BuyCommand{Amount: "0.1"}, "", true},
		{"zero amount", BuyCommand{TokenID: tokA, Amount: "0"}, "", true},
		{"garbage amount", BuyCommand{TokenID: tokA, Amount: "lots"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, tt.cmd.Text())
		})
	}
}

func TestSellCommand(t *testing.T) {
	tests := []struct {
		name    string
		cmd     SellCommand
		want    string
		wantErr bool
	}{
		{"partial", SellCommand{TokenID: tokA, Percent: 30}, "/sell " + tokA + " 30%", false},
		{"everything", SellCommand{TokenID: tokA, Percent: 100}, "/sell " + tokA + " 100%", false},
		{"zero", SellCommand{TokenID: tokA, Percent: 0}, "", true},
		{"over", SellCommand{TokenID: tokA, Percent: 101}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, tt.cmd.Text())
		})
	}
}
