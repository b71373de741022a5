// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package slogfield

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFields(t *testing.T) {
	t.Run("will build an attr with the given key", func(t *testing.T) {
		testCases := []struct {
			Name string
			Attr slog.Attr
		}{
			{Name: "Any", Attr: Any("key", struct{}{})},
			{Name: "Bool", Attr: Bool("key", true)},
			{Name: "String", Attr: String("key", "value")},
			{Name: "Strings", Attr: Strings("key", []string{"a", "b"})},
			{Name: "Int", Attr: Int("key", 1)},
			{Name: "Int64", Attr: Int64("key", 1)},
			{Name: "Path", Attr: Path("key", "/tmp/env")},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				assert.Equal(t, "key", testCase.Attr.Key)
			})
		}
	})

	t.Run("will use the error key", func(t *testing.T) {
		t.Run("if built from an error", func(t *testing.T) {
			err := errors.New("boom")
			attr := Error(err)
			assert.Equal(t, "error", attr.Key)
			assert.Equal(t, err, attr.Value.Any())
		})
	})
}
