// Package extract builds the extraction prompt and turns the model's loosely
// valid JSON reply into job-posting fields.
package extract

import (
	"bytes"
	"encoding/json"
	"strings"
)

// The field order below matters: the model writes fields top to bottom and
// later fields are conditioned on the earlier ones.
const promptTemplate = `### Order
You are a professional recruiter. Given Japanese job postings, please organize the information in a way that is easy for job seekers to understand and generate a Japanese JSON that meets the following output conditions.
To make the text easy to read, the content of the text fields should be formated using new line characters and indents.
### Job posting
{{posting}}
### Job categories
{{categories}}
### Output format
Unless otherwise instructed, leave fields blank if there is no information in the job posting.

{
   "company_name": string, # 会社名
   "position": string, # 職種（求人タイトル）
   "layer": string, # ["役員","管理職","一般職"] 記載がない場合は内容から推定.
   "employment_status": string, # 雇用形態 (e.g. "正社員","契約社員", ...) 記載がない場合は内容から推定.
   "job_category_name": string, # 職種カテゴリ. Job categoriesより選択. 記載がない場合は内容から推定.
   "address": string, # 勤務地
   "remote": string, # ["フルリモート","一部リモート","リモートワークなし","記載なし"]. 原則出社する必要がない場合は "フルリモート", 必ず毎日出社する必要がある場合は "リモートワークなし", それ以外の場合は "一部リモート".
   "benefit": string, # 福利厚生についての情報
   "holiday": string, # 休日・休暇についての情報
   "working_hours": string, # 勤務時間についての情報
   "trial_period": string, # 試用期間についての情報
   "min_salary": number, # 最低年収（円）
   "max_salary": number, # 最高年収（円）
   "salary": string, # 1行目:年収の範囲（e.g. *** ~ ***万円）. 2行目以降:昇給、賞与、手当など、金銭に関するその他の情報
   "smoking_prevention_measure": string, # 受動喫煙対策についての情報
   "min_qualifications": string, # 必要なスキル・経験
   "pfd_qualifications": string, # 歓迎されるスキル・経験
   "ideal_profile": string, # この求人で望まれる人物像
   "_is_application_method_written": boolean, # 応募方法が記載されているか. 具体的な応募方法は提示してはいけないため、出力に含めないこと
   "summary": string, # 詳細な職務の内容. ここまでの項目と重複する情報を含めないように注意
   "other": string, # その他の重要な情報
}
###
`

// BuildPrompt embeds the page content and the allowed category names.
func BuildPrompt(posting string, categories []string) string {
	r := strings.NewReplacer("{{posting}}", posting, "{{categories}}", formatCategories(categories))
	return r.Replace(promptTemplate)
}

func formatCategories(categories []string) string {
	if categories == nil {
		categories = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// a []string always encodes
	_ = enc.Encode(categories)
	return strings.TrimSuffix(buf.String(), "\n")
}
