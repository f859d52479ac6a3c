// Copyright 2025 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureCategory
	}{
		{"nil", nil, FailureCategoryUnknown},
		{"plain error", errors.New("dial tcp: timeout"), FailureCategoryUnknown},
		{"googleapi 429", &googleapi.Error{Code: 429}, FailureCategoryRateLimit},
		{"googleapi 400", &googleapi.Error{Code: 400}, FailureCategoryInvalidInput},
		{"googleapi 500", &googleapi.Error{Code: 500}, FailureCategoryModel},
		{"googleapi 503", &googleapi.Error{Code: 503}, FailureCategoryModel},
		{"genai 429", genai.APIError{Code: 429}, FailureCategoryRateLimit},
		{"genai 400", genai.APIError{Code: 400}, FailureCategoryInvalidInput},
		{"wrapped 429", fmt.Errorf("image call: %w", &googleapi.Error{Code: 429}), FailureCategoryRateLimit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyError(tc.err))
		})
	}
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, IsRateLimit(&googleapi.Error{Code: 429}))
	assert.False(t, IsRateLimit(&googleapi.Error{Code: 500}))
	assert.False(t, IsRateLimit(errors.New("nope")))
}
