// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
package rule

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

// initValidator 尝试复用 gin 的 validator 引擎；若不可用则新建并注册 tag name 函数.
func initValidator() {
	if engine := binding.Validator.Engine(); engine != nil {
		if v, ok := engine.(*validator.Validate); ok {
			inst = v
			inst.SetTagName("rule")

			registerDomainRules(inst)

			return
		}
	}

	inst = validator.New()
	inst.SetTagName("rule")

	registerDomainRules(inst)
}

// registerDomainRules 注册业务侧的自定义校验规则.
func registerDomainRules(v *validator.Validate) {
	// visibility 可见性枚举
	_ = v.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		switch strings.ToLower(s) {
		case "private", "organization", "public":
			return true
		}

		return false
	})

	// org_slug 组织 slug：小写字母数字与连字符
	_ = v.RegisterValidation("org_slug", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok || s == "" {
			return false
		}

		for _, r := range s {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
				return false
			}
		}

		return true
	})
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 是格式化后的验证错误字典，键为字段名，值为可读错误信息.
type ValidationErrors map[string]string

// Errors 将 validator 错误展开为字段到信息的字典，便于写入响应的 details.
func Errors(err error) ValidationErrors {
	out := ValidationErrors{}

	var verrs validator.ValidationErrors
	if ok := errorsAs(err, &verrs); !ok {
		return out
	}

	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = fe.Tag()
	}

	return out
}

// errorsAs 小封装，避免在每个调用点引入 errors 包.
func errorsAs(err error, target *validator.ValidationErrors) bool {
	if err == nil {
		return false
	}

	if v, ok := err.(validator.ValidationErrors); ok {
		*target = v
		return true
	}

	return false
}

// ValidateStruct 对结构体执行完整校验，返回原始 error（可用 Errors 解析）.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("abc", "required,email").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 包装 RegisterAlias，便于注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}
