package game

// InputFrame 某个序列号下按下的键
type InputFrame struct {
	Seq  uint64 `msgpack:"s"`
	Keys KeySet `msgpack:"k"`
}

// InputQueue 按序列号缓冲的输入；每个序列号至多一条，序列号单调不减
// 输入采样比网络 Tick 更频繁，同一 Tick 内的多次采样合并到同一条
type InputQueue struct {
	frames []InputFrame
}

// NewInputQueue 创建空队列
func NewInputQueue() *InputQueue {
	return &InputQueue{frames: make([]InputFrame, 0, 16)}
}

// Push 记录本次采样
// 与最后一条序列号相同则并集去重，否则追加新条目；比最后一条更旧的序列号并入最后一条
func (q *InputQueue) Push(seq uint64, keys []Key) {
	if n := len(q.frames); n > 0 && q.frames[n-1].Seq >= seq {
		q.frames[n-1].Keys = q.frames[n-1].Keys.Union(keys)
		return
	}
	q.frames = append(q.frames, InputFrame{Seq: seq, Keys: NewKeySet(keys...)})
}

// Len 条目数
func (q *InputQueue) Len() int { return len(q.frames) }

// Last 最后一条；队列为空时 ok=false
func (q *InputQueue) Last() (InputFrame, bool) {
	if len(q.frames) == 0 {
		return InputFrame{}, false
	}
	return q.frames[len(q.frames)-1], true
}

// Frames 全部条目的副本
func (q *InputQueue) Frames() []InputFrame {
	out := make([]InputFrame, len(q.frames))
	copy(out, q.frames)
	return out
}

// Since 返回序列号大于 seq 的条目副本（即对端尚未确认的部分）
func (q *InputQueue) Since(seq uint64) []InputFrame {
	for i, f := range q.frames {
		if f.Seq > seq {
			out := make([]InputFrame, len(q.frames)-i)
			copy(out, q.frames[i:])
			return out
		}
	}
	return nil
}

// Prune 丢弃序列号小于 minSeq 的条目，返回丢弃数量
func (q *InputQueue) Prune(minSeq uint64) int {
	i := 0
	for i < len(q.frames) && q.frames[i].Seq < minSeq {
		i++
	}
	if i == 0 {
		return 0
	}
	q.frames = append(q.frames[:0], q.frames[i:]...)
	return i
}
