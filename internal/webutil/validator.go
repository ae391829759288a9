package webutil

import (
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/locales/zh" // 中国語ロケール
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh" // 中国語翻訳
)

// Validator はアプリケーション全体で共有されるバリデータインスタンスです。
var Validator *validator.Validate

// Trans はエラーメッセージを翻訳するためのトランスレータです。
var Trans ut.Translator

var fieldNameTranslations = map[string]string{
	"name":             "姓名",
	"email":            "邮箱地址",
	"password":         "密码",
	"score":            "成绩",
	"time_spent":       "学习时长",
	"activity_id":      "活动编号",
	"activity_type":    "活动类型",
	"language":         "语言",
	"skills_practiced": "练习技能",
	"total_minutes":    "学习总时长",
	"daily_study_time": "每日学习时长",
	"status":           "状态",
}

func init() {
	// バリデータのインスタンスを生成
	Validator = validator.New()

	// JSONタグからフィールド名を取得するように設定
	Validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// --- ここからが中国語化の処理 ---

	chinese := zh.New()
	uni := ut.New(chinese, chinese)
	var found bool
	Trans, found = uni.GetTranslator("zh")
	if !found {
		log.Fatal("translator not found")
	}

	// バリデータに中国語の翻訳を登録
	if err := zh_translations.RegisterDefaultTranslations(Validator, Trans); err != nil {
		log.Fatal(err)
	}

	// 必要に応じて、個別のエラーメッセージを上書き・カスタマイズ
	registerTranslation := func(tag string, msg string) {
		Validator.RegisterTranslation(tag, Trans, func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			// jsonタグ名を中国語名に変換してメッセージを生成
			fieldName := fe.Field()
			translatedFieldName, ok := fieldNameTranslations[fieldName]
			if !ok {
				translatedFieldName = fieldName
			}
			t, _ := ut.T(tag, translatedFieldName)
			return t
		})
	}

	registerTranslation("required", "{0}为必填项。")
	registerTranslation("email", "{0}不是有效的邮箱地址格式。")

	// --- パラメータ付きタグ (min/max) ---
	registerParamTranslation := func(tag string, msg string) {
		Validator.RegisterTranslation(tag, Trans, func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			fieldName := fe.Field()
			translatedFieldName, ok := fieldNameTranslations[fieldName]
			if !ok {
				translatedFieldName = fieldName
			}
			t, _ := ut.T(tag, translatedFieldName, fe.Param())
			return t
		})
	}

	registerParamTranslation("min", "{0}不能小于{1}。")
	registerParamTranslation("max", "{0}不能大于{1}。")
}
