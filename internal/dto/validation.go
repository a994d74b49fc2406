package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/Dev4EM/tutorDepartment/internal/model"
)

// RegisterValidations 注册本模块的自定义校验标签：
//   - calendar_date   YYYY-MM-DD 合法日历日期
//   - task_type       daily | occasional
//   - schedule_status pending | completed | missed
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("task_type", func(fl validator.FieldLevel) bool {
		return model.TaskType(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("schedule_status", func(fl validator.FieldLevel) bool {
		return model.ScheduleStatus(fl.Field().String()).Valid()
	})
}

// NewValidator 创建读取 binding 标签的校验器，供非 HTTP 调用路径复用同一套规则
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	if err := RegisterValidations(v); err != nil {
		panic(err) // 仅在标签名冲突时发生，属于编程错误
	}
	return v
}
