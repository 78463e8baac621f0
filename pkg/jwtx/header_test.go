package jwtx_test

import (
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestExtractFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"empty header", "", "", true},
		{"lowercase scheme", "bearer abc.def.ghi", "", true},
		{"uppercase scheme", "BEARER abc.def.ghi", "", true},
		{"no space", "Bearerabc.def.ghi", "", true},
		{"double space", "Bearer  abc.def.ghi", "", true},
		{"prefix only", "Bearer ", "", true},
		{"basic scheme", "Basic dXNlcjpwYXNz", "", true},
		{"trailing junk", "Bearer abc def", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := jwtx.ExtractFromHeader(tt.header)
			if tt.wantErr {
				require.ErrorIs(t, err, jwtx.ErrMalformedHeader)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
