package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crestline-lending/income-engine/dto"
)

func TestClassifyOverridesDeclaredType(t *testing.T) {
	text := `
		SCHEDULE C (Form 1040)
		Profit or Loss From Business
		(Sole Proprietorship)
		31 Net profit or (loss)
	`

	res := Classify(text, dto.DocTypeW2)

	assert.Equal(t, dto.DocTypeScheduleC, res.FinalType)
	assert.Equal(t, dto.DocTypeW2, res.OriginalType)
	assert.True(t, res.Override)
	assert.Contains(t, res.AnchorsFound, "schedule_c_header")
	assert.Equal(t, 1.0, res.Confidence)

	// The 1040 header on the schedule itself is no defense either.
	res = Classify(text, dto.DocType1040)
	assert.Equal(t, dto.DocTypeScheduleC, res.FinalType)
	assert.True(t, res.Override)
	assert.NotEqual(t, res.OriginalType, res.FinalType)
}

func TestClassifyKeepsDeclaredOnWeakContradiction(t *testing.T) {
	// A lone W-2 mention is not enough evidence to contradict the hint.
	res := Classify("copy attached of last year's W-2 for reference", dto.DocTypePayStub)

	assert.Equal(t, dto.DocTypePayStub, res.FinalType)
	assert.False(t, res.Override)
}

func TestClassifyConfirmsDeclaredType(t *testing.T) {
	text := `
		Earnings Statement
		Pay Period: 09/01/2025 - 09/15/2025
		Gross Pay    2,500.00
		Net Pay      2,100.00
		YTD          45,000.00
	`

	res := Classify(text, dto.DocTypePayStub)

	assert.Equal(t, dto.DocTypePayStub, res.FinalType)
	assert.False(t, res.Override)
	assert.NotEmpty(t, res.AnchorsFound)
}

func TestClassifyWithoutHint(t *testing.T) {
	text := `
		SCHEDULE E (Form 1040)
		Supplemental Income and Loss
		Rental Real Estate
	`

	res := Classify(text, "")

	assert.Equal(t, dto.DocTypeScheduleE, res.FinalType)
	assert.False(t, res.Override)
}

func TestClassifySpecificityBreaksTies(t *testing.T) {
	// The 1040 header appears on every schedule; the schedule wins the tie.
	res := Classify("SCHEDULE C attachment for Form 1040", "")

	assert.Equal(t, dto.DocTypeScheduleC, res.FinalType)
}

func TestClassifyUnreadableText(t *testing.T) {
	res := Classify("@@## ...", "")
	assert.Equal(t, dto.DocTypeOther, res.FinalType)
	assert.Zero(t, res.Confidence)

	res = Classify("@@## ...", dto.DocTypeVOE)
	assert.Equal(t, dto.DocTypeVOE, res.FinalType)
	assert.False(t, res.Override)
}

func TestClassifyVOE(t *testing.T) {
	text := `
		Request for Verification of Employment (Form 1005)
		Probability of Continued Employment: Good
	`

	res := Classify(text, "")
	assert.Equal(t, dto.DocTypeVOE, res.FinalType)
	assert.Equal(t, 1.0, res.Confidence)
}
