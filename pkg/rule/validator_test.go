package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/rule"
)

// errorInput 用于测试 ValidateStruct.
type errorInput struct {
	Type    string `json:"type"    rule:"required,max=128"`
	Title   string `json:"title"   rule:"required,max=512"`
	Message string `json:"message" rule:"required"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	assert.NotNil(t, rule.Engine())
}

// TestValidateStruct 字段错误以 json 名为键.
func TestValidateStruct(t *testing.T) {
	require.NoError(t, rule.ValidateStruct(errorInput{Type: "parse", Title: "bad row", Message: "line 3"}))

	err := rule.ValidateStruct(errorInput{Type: "parse"})
	require.Error(t, err)

	errs := rule.Errors(err)
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "message")
	assert.NotContains(t, errs, "type")
}

// TestErrors_NonValidation 非校验错误返回 nil.
func TestErrors_NonValidation(t *testing.T) {
	assert.Nil(t, rule.Errors(assert.AnError))
}

// TestFileName 文件名规则.
func TestFileName(t *testing.T) {
	valid := []string{"data.csv.gz", "2024-01-01 export.csv", "报表.csv"}
	for _, name := range valid {
		assert.NoError(t, rule.ValidateVar(name, "filename"), name)
	}

	invalid := []string{"", ".", "..", "a/b.csv", `a\b.csv`, "bad\x00name"}
	for _, name := range invalid {
		assert.Error(t, rule.ValidateVar(name, "filename"), name)
	}
}

// TestValidateVar 测试 ValidateVar 对变量的验证.
func TestValidateVar(t *testing.T) {
	assert.NoError(t, rule.ValidateVar(25, "gte=18"))
	assert.Error(t, rule.ValidateVar(15, "gte=18"))
}

// TestRegisterValidation 测试注册自定义验证.
func TestRegisterValidation(t *testing.T) {
	err := rule.RegisterValidation("even_length", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		return len(str)%2 == 0
	})
	require.NoError(t, err)

	assert.NoError(t, rule.ValidateVar("test", "even_length"))
	assert.Error(t, rule.ValidateVar("test1", "even_length"))
}

// TestRegisterAlias 测试注册别名.
func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("min_required", "required,min=3")

	assert.NoError(t, rule.ValidateVar("abc", "min_required"))
	assert.Error(t, rule.ValidateVar("ab", "min_required"))
}
