package leak

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "string literal", StringLiteral.String())
	assert.Equal(t, "struct name", StructName.String())
	assert.Equal(t, "class name", ClassName.String())
}

func TestDataType_MarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dataType DataType
		want     string
	}{
		{dataType: StringLiteral, want: `"StringLiteral"`},
		{dataType: StructName, want: `"StructName"`},
		{dataType: ClassName, want: `"ClassName"`},
	}

	for _, tt := range tests {
		got, err := json.Marshal(tt.dataType)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}
}

func TestConfirmed_MarshalJSON(t *testing.T) {
	t.Parallel()

	confirmed := Confirmed{
		Type: StringLiteral,
		Data: "secret",
		Location: Location{
			Source: &SourceLocation{File: "/src/a.cc", Line: 42},
			Binary: BinaryLocation{File: "/bin/a.out", Offset: 128},
		},
	}

	got, err := json.Marshal(confirmed)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"data_type": "StringLiteral",
		"data": "secret",
		"location": {
			"source": {"file": "/src/a.cc", "line": 42},
			"binary": {"file": "/bin/a.out", "offset": 128}
		}
	}`, string(got))
}
