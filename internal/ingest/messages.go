package ingest

import "errors"

// Messages stored in job_loadings.error_message and shown to users as is.
const (
	MsgInvalidURL    = "URLが正しくありません。"
	MsgFetchFailed   = "ウェブページの取得に失敗しました。"
	MsgAnalyzeFailed = "求人情報の解析に失敗しました。"
	MsgParseFailed   = "解析結果の取得に失敗しました。"
	MsgSaveFailed    = "解析結果の保存に失敗しました。"
	MsgTimeout       = "タイムアウトしました。"
	MsgEnqueueFailed = "求人情報の読み込みを開始できませんでした。"
)

// messageFor maps a failure to its user-facing message. Anything unexpected
// is reported as an analysis failure.
func messageFor(err error) string {
	switch {
	case errors.Is(err, ErrSoftTimeout):
		return MsgTimeout
	case errors.Is(err, ErrValidation):
		return MsgInvalidURL
	case errors.Is(err, ErrFetch):
		return MsgFetchFailed
	case errors.Is(err, ErrParse):
		return MsgParseFailed
	case errors.Is(err, ErrPersistence):
		return MsgSaveFailed
	case errors.Is(err, ErrEnqueue):
		return MsgEnqueueFailed
	default:
		return MsgAnalyzeFailed
	}
}
