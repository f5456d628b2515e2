package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		DateFormats: []string{"2006-01-02"},
		PaidColumn:  "paid",
		Buckets: []Bucket{
			{Limit: decimal.NewFromInt(100), Label: "small"},
			{Limit: decimal.NewFromInt(1000), Label: "large"},
		},
		DefaultCategory: "jumbo",
		ProcessingDate:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRun_ValidInput(t *testing.T) {
	csvText := "id,amount,date,client\n" +
		"INV-1,150.00,2024-01-01,Acme\n" +
		"INV-2,\"$1,250.50\",2024-07-01,Globex\n"

	records, report, err := Run(csvText, testConfig())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, report)

	assert.Equal(t, "INV-1", records[0].ID)
	assert.True(t, records[0].Amount.Equal(decimal.RequireFromString("150.00")))
	assert.Equal(t, "Acme", records[0].Extra["client"])

	assert.Equal(t, "INV-2", records[1].ID)
	assert.True(t, records[1].Amount.Equal(decimal.RequireFromString("1250.50")))
}

func TestRun_Idempotent(t *testing.T) {
	csvText := "id,amount,date\n" +
		"A,50,2024-05-01\n" +
		"B,bogus,2024-05-01\n" +
		"C,500,not-a-date\n" +
		"A,70,2024-05-02\n"
	cfg := testConfig()

	first, firstReport, err := Run(csvText, cfg)
	require.NoError(t, err)
	second, secondReport, err := Run(csvText, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstReport, secondReport)
}

func TestRun_DedupeFirstWins(t *testing.T) {
	csvText := "id,amount,date\n" +
		"INV-9,10,2024-05-01\n" +
		"INV-9,9999,2024-05-02\n"

	records, report, err := Run(csvText, testConfig())
	require.NoError(t, err)
	assert.Empty(t, report)
	require.Len(t, records, 1)
	assert.True(t, records[0].Amount.Equal(decimal.NewFromInt(10)))
}

func TestCategorize_Status(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name string
		row  string
		want Status
	}{
		{"overdue when past and unpaid", "INV-1,150.00,2024-01-01,", StatusOverdue},
		{"paid wins over past date", "INV-2,150.00,2024-01-01,yes", StatusPaid},
		{"pending when not yet due", "INV-3,150.00,2024-08-01,", StatusPending},
		{"pending on the processing date itself", "INV-4,150.00,2024-06-01,", StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, report, err := Run("id,amount,date,paid\n"+tt.row+"\n", cfg)
			require.NoError(t, err)
			require.Empty(t, report)
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0].Status)
		})
	}
}

func TestCategorize_Buckets(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		amount string
		want   string
	}{
		{"50", "small"},
		{"99.99", "small"},
		{"100", "large"},
		{"999.99", "large"},
		{"1000", "jumbo"},
		{"250000", "jumbo"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			records, _, err := Run("id,amount,date\nX,"+tt.amount+",2024-07-01\n", cfg)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0].Category)
		})
	}
}

func TestCategorize_BucketOrderIndependent(t *testing.T) {
	cfg := testConfig()
	cfg.Buckets = []Bucket{
		{Limit: decimal.NewFromInt(1000), Label: "large"},
		{Limit: decimal.NewFromInt(100), Label: "small"},
	}

	records, _, err := Run("id,amount,date\nX,50,2024-07-01\n", cfg)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "small", records[0].Category)
}

func TestRun_MissingAmountColumn(t *testing.T) {
	csvText := "id,date\n" +
		"A,2024-05-01\n" +
		"B,2024-05-02\n" +
		"C,2024-05-03\n"

	records, report, err := Run(csvText, testConfig())
	require.NoError(t, err)
	assert.Empty(t, records)
	require.Len(t, report, 3)
	for i, skipped := range report {
		assert.Equal(t, KindMissingField, skipped.Kind)
		assert.Equal(t, ColumnAmount, skipped.Field)
		assert.Equal(t, i+2, skipped.Row)
	}
}

func TestRun_RowLocalErrors(t *testing.T) {
	csvText := "id,amount,date\n" +
		"A,50,2024-05-01\n" +
		"B,not-money,2024-05-01\n" +
		"C,60,05/01/2024\n" +
		",70,2024-05-01\n"

	records, report, err := Run(csvText, testConfig())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].ID)

	require.Len(t, report, 3)
	assert.Equal(t, Skipped{Row: 3, Kind: KindInvalidAmount, Field: "amount", Value: "not-money"}, report[0])
	assert.Equal(t, Skipped{Row: 4, Kind: KindInvalidDate, Field: "date", Value: "05/01/2024"}, report[1])
	assert.Equal(t, Skipped{Row: 5, Kind: KindMissingField, Field: "id"}, report[2])
}

func TestRun_MultipleDateFormats(t *testing.T) {
	cfg := testConfig()
	cfg.DateFormats = []string{"2006-01-02", "01/02/2006"}

	records, report, err := Run("id,amount,date\nA,10,2024-05-01\nB,20,06/15/2024\n", cfg)
	require.NoError(t, err)
	assert.Empty(t, report)
	require.Len(t, records, 2)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), records[1].Date)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty input", ""},
		{"header only", "id,amount,date\n"},
		{"broken quoting", "id,amount,date\n\"A,50,2024-05-01\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Run(tt.csv, testConfig())
			var malformed *MalformedError
			require.ErrorAs(t, err, &malformed)
		})
	}
}

func TestParse_QuotedFieldsAndBOM(t *testing.T) {
	csvText := "\ufeffid,amount,date,notes\n" +
		"INV-1,\"1,500.00\",2024-05-01,\"call back, urgent\"\n"

	rows, err := Parse(csvText)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "INV-1", rows[0].Fields["id"])
	assert.Equal(t, "1,500.00", rows[0].Fields["amount"])
	assert.Equal(t, "call back, urgent", rows[0].Fields["notes"])
}

func TestConfig_Validate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	noFormats := cfg
	noFormats.DateFormats = nil
	assert.Error(t, noFormats.Validate())

	noDate := cfg
	noDate.ProcessingDate = time.Time{}
	assert.Error(t, noDate.Validate())

	noDefault := cfg
	noDefault.DefaultCategory = ""
	assert.Error(t, noDefault.Validate())

	_, _, err := Run("id,amount,date\nA,1,2024-01-01\n", noFormats)
	assert.Error(t, err)
	var malformed *MalformedError
	assert.False(t, errors.As(err, &malformed), "config errors are not input errors")
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "170.63", want: "170.63"},
		{raw: "$170.63", want: "170.63"},
		{raw: "$1,170.63", want: "1170.63"},
		{raw: " 42 ", want: "42"},
		{raw: "", wantErr: true},
		{raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)))
		})
	}
}
