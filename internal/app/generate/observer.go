package generate

import (
	"time"

	"github.com/John-Robertt/ytqr/internal/config"
	"github.com/John-Robertt/ytqr/internal/domain"
)

// Observer 把进度/提示从生成流程中解耦出来。
//
// 约束：
// - generate 包只发事件，不写 stdout/stderr
// - 事件在汇总循环中串行发出，实现无需加锁
type Observer interface {
	// OnStart 在开始处理前调用一次。
	OnStart(eff config.EffectiveConfig, total int)
	// OnItemDone 在每条输入处理完成时调用；res.Messages 就是要提示给用户的 toast。
	OnItemDone(done, total int, res domain.ItemResult, dur time.Duration)
}
