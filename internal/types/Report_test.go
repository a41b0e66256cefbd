package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		want     string
	}{
		{"whole", big.NewInt(37_000_000), 6, "37"},
		{"fraction", big.NewInt(37_500_000), 6, "37.5"},
		{"trims trailing zeros", big.NewInt(1_230_000), 6, "1.23"},
		{"leading fraction zeros", big.NewInt(42), 6, "0.000042"},
		{"negative", big.NewInt(-1_500_000), 6, "-1.5"},
		{"zero", big.NewInt(0), 18, "0"},
		{"nil", nil, 18, "0"},
		{"no decimals", big.NewInt(1234), 0, "1234"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatUnits(tc.amount, tc.decimals))
		})
	}
}

func TestLiquidationReportDelta(t *testing.T) {
	report := LiquidationReport{
		Outcomes: []LiquidationOutcome{
			{Confirmed: true},
			{Confirmed: false, Error: "reverted"},
			{Confirmed: true},
		},
		PreBalance:  big.NewInt(1_000_000),
		PostBalance: big.NewInt(1_370_000),
		Decimals:    6,
	}
	assert.Equal(t, big.NewInt(370_000), report.BalanceDelta())
	assert.Equal(t, "0.37", report.FormattedDelta())
	assert.Equal(t, 2, report.Confirmed())
}

func TestProtocolBytes32(t *testing.T) {
	proto := ProtocolBytes32("sapphire.credit")
	assert.Equal(t, byte('s'), proto[0])
	assert.Equal(t, byte(0), proto[31], "right-padded with zero bytes")

	proof := EmptyScoreProof(common.HexToAddress("0x01"), "sapphire.credit")
	assert.Equal(t, 0, proof.Score.Sign())
	assert.NotNil(t, proof.MerkleProof)
}

func TestCoreParametersValidate(t *testing.T) {
	valid := CoreParameters{
		HighCRatio:         big.NewInt(2),
		LowCRatio:          big.NewInt(1),
		CurrentBorrowIndex: big.NewInt(1),
		CurrentPrice:       big.NewInt(1),
		MaxScore:           big.NewInt(1000),
		Protocol:           "sapphire.credit",
	}
	assert.NoError(t, valid.Validate())

	zeroPrice := valid
	zeroPrice.CurrentPrice = big.NewInt(0)
	assert.ErrorIs(t, zeroPrice.Validate(), ErrParameterUnavailable)

	nilField := valid
	nilField.MaxScore = nil
	assert.ErrorIs(t, nilField.Validate(), ErrParameterUnavailable)

	noProtocol := valid
	noProtocol.Protocol = ""
	assert.ErrorIs(t, noProtocol.Validate(), ErrParameterUnavailable)
}
