package rule_test

import (
	"testing"

	"github.com/yeisme/vidvault/pkg/rule"
)

// uploadForm 用于测试 ValidateStruct.
type uploadForm struct {
	Title      string `rule:"required,max=200"`
	Visibility string `rule:"omitempty,visibility"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对有效和无效结构体的验证.
func TestValidateStruct(t *testing.T) {
	// 有效结构体
	valid := uploadForm{Title: "demo", Visibility: "organization"}

	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	// 无效结构体：缺少 Title
	if err := rule.ValidateStruct(uploadForm{Visibility: "public"}); err == nil {
		t.Error("Expected error for missing title, got nil")
	}

	// 无效结构体：可见性不在枚举内
	if err := rule.ValidateStruct(uploadForm{Title: "demo", Visibility: "everyone"}); err == nil {
		t.Error("Expected error for invalid visibility, got nil")
	}
}

// TestVisibilityRule 测试自定义 visibility 规则的边界.
func TestVisibilityRule(t *testing.T) {
	for _, v := range []string{"private", "organization", "public"} {
		if err := rule.ValidateVar(v, "visibility"); err != nil {
			t.Errorf("Expected %q to be valid, got %v", v, err)
		}
	}

	if err := rule.ValidateVar("internal", "visibility"); err == nil {
		t.Error("Expected error for unknown visibility, got nil")
	}
}

// TestOrgSlugRule 测试组织 slug 规则.
func TestOrgSlugRule(t *testing.T) {
	cases := map[string]bool{
		"acme":       true,
		"acme-corp":  true,
		"acme-2":     true,
		"Acme":       false,
		"acme corp":  false,
		"":           false,
		"acme_corp!": false,
	}

	for slug, want := range cases {
		err := rule.ValidateVar(slug, "org_slug")
		if (err == nil) != want {
			t.Errorf("slug %q: want valid=%v, got err=%v", slug, want, err)
		}
	}
}

// TestErrors 测试验证错误展开为字段字典.
func TestErrors(t *testing.T) {
	err := rule.ValidateStruct(uploadForm{Visibility: "nope"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	details := rule.Errors(err)
	if len(details) == 0 {
		t.Error("expected non-empty details")
	}
}
