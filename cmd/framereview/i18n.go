// Package main provides localization for the framereview CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Playback": "再生",
		"Index":    "インデックス",
		"Display":  "表示",
		"Decoding": "デコード",
		"Logging":  "ログ",

		// Root command
		"Review videos frame by frame": "動画をフレーム単位でレビュー",

		// Commands
		"Play a video and read commands from stdin": "動画を再生し、標準入力からコマンドを読み込む",
		"Print the entries of an index file":        "インデックスファイルのエントリを表示",
		"Save one frame of a video as an image":     "動画の1フレームを画像として保存",
		"Print video information":                   "動画の情報を表示",

		// Play flags
		"YAML configuration file":                         "YAML設定ファイル",
		"Initial speed (1, 0.5, 1.25, 2, 5, 10, 20)":      "初期再生速度（1, 0.5, 1.25, 2, 5, 10, 20）",
		"Tick interval at speed 1":                        "速度1でのティック間隔",
		"Stop after this many ticks (0 = no limit)":       "指定したティック数で停止（0 = 無制限）",
		"Stop at end of stream instead of wrapping":       "末尾で先頭に戻らず停止",
		"Index file to load at start":                     "起動時に読み込むインデックスファイル",
		"Text encoding of index files":                    "インデックスファイルの文字コード",
		"Reload the index file when it changes":           "インデックスファイルの変更時に再読み込み",
		"Frame display (status, dir, null)":               "フレーム表示先（status, dir, null）",
		"Directory for the dir display":                   "dir表示の出力ディレクトリ",
		"Decoding backend (auto, ffgo, ffmpeg, imageseq)": "デコードバックエンド（auto, ffgo, ffmpeg, imageseq）",
		"Path to the ffmpeg binary":                       "ffmpeg実行ファイルのパス",

		// Snapshot flags
		"JPEG quality (1-100)":                  "JPEG品質（1-100）",
		"Draw the frame number below the image": "画像の下にフレーム番号を描画",
		"TrueType font for captions":            "キャプション用のTrueTypeフォント",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Argument errors
		"A video argument is required":                   "動画の引数が必要です",
		"An index file argument is required":             "インデックスファイルの引数が必要です",
		"Video, frame and output arguments are required": "動画、フレーム、出力先の引数が必要です",
		"Error: %v":                                      "エラー: %v",

		// Index output
		"%d entries, %d skipped": "%d 件のエントリ、%d 件をスキップ",

		// Probe output
		"Path":        "パス",
		"Backend":     "バックエンド",
		"Codec":       "コーデック",
		"Frame Count": "フレーム数",
		"Size":        "サイズ",
		"Frame Rate":  "フレームレート",
		"Duration":    "再生時間",
		"Track":       "トラック",
		"Timescale":   "タイムスケール",
		"Fragmented":  "フラグメント化",
	})
}
