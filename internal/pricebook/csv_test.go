package pricebook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"129.99", 12999},
		{"$1,299", 129900},
		{"0", 0},
		{" 45.5 ", 4550},
		{"89.999", 9000}, // rounds to two decimals
	}
	for _, tc := range cases {
		got, err := parseCents(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := parseCents("twelve")
	assert.Error(t, err)
	_, err = parseCents("")
	assert.Error(t, err)
}

func TestParseCSVMissingColumnIsFatal(t *testing.T) {
	in := "sheet,category,code,name,tier\nHVAC,Repair,H100,Capacitor,STANDARD\n"
	_, _, _, err := parseCSV(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit_price")
}

func TestParseCSVSkipsBadRows(t *testing.T) {
	in := strings.Join([]string{
		"sheet,category,code,name,tier,unit_price",
		"HVAC,Repair,H100,Capacitor,STANDARD,129.99",
		"HVAC,Repair,H100,Capacitor,PLATINUM,99.99", // unknown tier
		"HVAC,Repair,,No Code,STANDARD,10.00",       // missing code
		"HVAC,Repair,H101,Contactor,MEMBER,abc",     // bad price
		"Plumbing,Drains,P200,Snake,MEMBER,$149",
	}, "\n") + "\n"

	rows, rowsRead, rowErrs, err := parseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 5, rowsRead)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(12999), rows[0].UnitPriceCents)
	assert.Equal(t, TierMember, rows[1].Tier)
	assert.Equal(t, int64(14900), rows[1].UnitPriceCents)

	require.Len(t, rowErrs, 3)
	// Line numbers are 1-based with the header as line 1.
	assert.Equal(t, 3, rowErrs[0].Line)
	assert.Equal(t, 4, rowErrs[1].Line)
	assert.Equal(t, 5, rowErrs[2].Line)
}

func TestParseCSVOptionalBreakdownColumns(t *testing.T) {
	in := strings.Join([]string{
		"sheet,category,code,name,tier,unit_price,hours,equipment,hourly_rate,material_markup",
		"HVAC,Install,H500,Condenser,STANDARD,3499.00,4.5,$2100,189.00,1.25",
		"HVAC,Install,H500,Condenser,MEMBER,3149.10,,,,",
	}, "\n") + "\n"

	rows, _, rowErrs, err := parseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Empty(t, rowErrs)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].Hours)
	assert.Equal(t, 4.5, *rows[0].Hours)
	require.NotNil(t, rows[0].EquipmentCents)
	assert.Equal(t, int64(210000), *rows[0].EquipmentCents)
	require.NotNil(t, rows[0].HourlyRateCents)
	assert.Equal(t, int64(18900), *rows[0].HourlyRateCents)
	require.NotNil(t, rows[0].MaterialMarkupPct)
	assert.Equal(t, 1.25, *rows[0].MaterialMarkupPct)

	assert.Nil(t, rows[1].Hours)
	assert.Nil(t, rows[1].EquipmentCents)
}

func TestGroupRowsPreservesOrder(t *testing.T) {
	rows := []row{
		{Line: 2, Sheet: "HVAC", Category: "Repair", Code: "H100", Name: "Capacitor", Tier: TierStandard},
		{Line: 3, Sheet: "Plumbing", Category: "Drains", Code: "P200", Name: "Snake", Tier: TierStandard},
		{Line: 4, Sheet: "HVAC", Category: "Repair", Code: "H100", Name: "Capacitor", Tier: TierMember},
	}

	groups, warnings := groupRows(rows)
	require.Empty(t, warnings)
	require.Len(t, groups, 2)
	assert.Equal(t, "H100", groups[0].Key.Code)
	assert.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "P200", groups[1].Key.Code)
}

func TestGroupRowsDescriptionConflictWarns(t *testing.T) {
	rows := []row{
		{Line: 2, Sheet: "HVAC", Category: "Repair", Code: "H100", Name: "Capacitor", Tier: TierStandard, Description: "Dual run capacitor"},
		{Line: 3, Sheet: "HVAC", Category: "Repair", Code: "H100", Name: "Capacitor", Tier: TierMember, Description: "Single run capacitor"},
	}

	groups, warnings := groupRows(rows)
	require.Len(t, groups, 1)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "line 3")
	assert.Contains(t, warnings[0], "H100")
}
