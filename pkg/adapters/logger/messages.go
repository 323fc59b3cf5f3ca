package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session lifecycle (info)
		"Opened %s: %d frames, %dx%d, %s backend": "%s を開きました: %d フレーム, %dx%d, %s バックエンド",
		"Session %s started at %sx speed":         "セッション %s を %s 倍速で開始しました",
		"Session closed after %d ticks":           "%d ティックでセッションを終了しました",
		"Playback stopped: %s":                    "再生を停止しました: %s",
		"Interrupted, shutting down...":           "中断されました。終了しています...",

		// Position changes
		"Jump to frame %d":          "フレーム %d へジャンプ",
		"Seek to frame %d":          "フレーム %d へシーク",
		"Paused at frame %d":        "フレーム %d で一時停止",
		"Resumed at frame %d":       "フレーム %d から再開",
		"Speed set to %sx":          "再生速度を %s 倍に設定しました",
		"Wrapped to frame %d":       "フレーム %d へ巻き戻しました",
		"End of stream at frame %d": "フレーム %d でストリーム終端に達しました",

		// Decoding (debug)
		"Frame %d decoded in %s (%s)": "フレーム %d のデコードに %s かかりました (%s)",
		"Seeking source to frame %d":  "ソースをフレーム %d にシーク中",

		// Index
		"Loaded %d index entries from %s":   "%[2]s から %[1]d 件のインデックスを読み込みました",
		"Skipped index line %d: %s":         "インデックスの %d 行目をスキップしました: %s",
		"Index file changed, reloading %s":  "インデックスファイルが変更されました。%s を再読み込みします",
		"Selected index entry %d: frame %d": "インデックス %d を選択: フレーム %d",

		// Snapshot
		"Snapshot of frame %d saved to %s": "フレーム %d のスナップショットを %s に保存しました",
		"Snapshot cancelled":               "スナップショットがキャンセルされました",

		// Warnings
		"Failed to decode frame %d: %v":   "フレーム %d のデコードに失敗しました: %v",
		"Rejected command %q: %v":         "コマンド %q を拒否しました: %v",
		"Failed to load index: %v":        "インデックスの読み込みに失敗しました: %v",
		"Failed to watch index file: %v":  "インデックスファイルを監視できません: %v",
		"Unexpected video extension: %s":  "想定外の動画拡張子です: %s",
		"ffgo unavailable, using ffmpeg: %v": "ffgo が利用できないため ffmpeg を使用します: %v",

		// Errors
		"Failed to open %s: %v":   "%s を開けませんでした: %v",
		"Failed to show frame %d: %v": "フレーム %d を表示できませんでした: %v",
	})
}
