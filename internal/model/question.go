// Package model 提供问题相关的数据模型
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnswerType 问题模版的答案类型
type AnswerType string

const (
	AnswerTypeText         AnswerType = "text"          // 自由文本
	AnswerTypeLabel        AnswerType = "label"         // 标签集合
	AnswerTypeCustomFormat AnswerType = "custom_format" // 自定义输出格式
)

// StringSlice 以 JSON 文本存储的字符串数组
type StringSlice []string

// Value 实现 driver.Valuer 接口
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return nil
	}
	return json.Unmarshal(b, s)
}

// Question 由模型生成的候选问题
// answered 标记该问题是否已生成过数据集
type Question struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID  string    `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Question   string    `json:"question" gorm:"type:text;not null"`
	Label      string    `json:"label" gorm:"type:varchar(64);index"` // 来源标签，图片问题固定为 "image"
	ChunkID    string    `json:"chunk_id" gorm:"type:varchar(36);index"`
	ImageID    string    `json:"image_id" gorm:"type:varchar(36);index"`
	ImageName  string    `json:"image_name" gorm:"type:varchar(255)"`
	TemplateID string    `json:"template_id" gorm:"type:varchar(36)"`
	Answered   bool      `json:"answered" gorm:"default:false;index"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子
func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Question) TableName() string {
	return "questions"
}

// QuestionTemplate 问题模版
// 生成答案时约束输出格式，只读引用
type QuestionTemplate struct {
	ID           string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID    string      `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Name         string      `json:"name" gorm:"type:varchar(255)"`
	AnswerType   AnswerType  `json:"answer_type" gorm:"type:varchar(20);default:'text'"`
	Labels       StringSlice `json:"labels" gorm:"type:text"`
	CustomFormat string      `json:"custom_format" gorm:"type:text"`
	Description  string      `json:"description" gorm:"type:text"`
	CreatedAt    time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子
func (t *QuestionTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (QuestionTemplate) TableName() string {
	return "question_templates"
}
