// 包 export 负责 dry-run 导出：将本次运行的统计与台账记录写为 JSON 报告。
package export

import (
	"encoding/json"
	"fmt"
	"os"

	"go-link-tracker/internal/model"
)

// maxExportRecords 为每类记录的导出上限，统计数字不受影响。
const maxExportRecords = 1000

// ToJSON 将报告写入 JSON 文件（带缩进格式）。
func ToJSON(rep model.Report, path string) error {
	rep.Accepted = capped(rep.Accepted)
	rep.Skipped = capped(rep.Skipped)
	rep.Failures = capped(rep.Failures)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	return nil
}

func capped[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	if len(in) > maxExportRecords {
		return in[:maxExportRecords]
	}
	return in
}
