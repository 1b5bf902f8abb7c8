package output

import (
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/doris-sinker/kafka-poller/internal/consumer"
	"github.com/doris-sinker/kafka-poller/pkg/errors"
	"github.com/doris-sinker/kafka-poller/pkg/pool"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// lineEscaper 保证text格式下一条记录只占一行
var lineEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)

// line 输出字段顺序固定为 partition, offset, value
type line struct {
	Partition int32  `json:"partition"`
	Offset    int64  `json:"offset"`
	Value     string `json:"value"`
}

// Printer 每条记录输出一行
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

// NewPrinter 创建Printer，未知格式按json处理
func NewPrinter(w io.Writer, format string) *Printer {
	if format != FormatText {
		format = FormatJSON
	}
	return &Printer{w: w, format: format}
}

// Emit 写出一条记录，签名与 consumer.Handle.Run 的回调一致
func (p *Printer) Emit(rec consumer.Record) error {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if p.format == FormatText {
		buf.WriteString("{partition=")
		buf.WriteString(strconv.FormatInt(int64(rec.Partition), 10))
		buf.WriteString(", offset=")
		buf.WriteString(strconv.FormatInt(rec.Offset, 10))
		buf.WriteString(", value=")
		lineEscaper.WriteString(buf, rec.Value)
		buf.WriteByte('}')
	} else {
		data, err := sonic.Marshal(line{Partition: rec.Partition, Offset: rec.Offset, Value: rec.Value})
		if err != nil {
			return errors.Wrap(errors.ErrCodeOutput, "failed to encode record", err)
		}
		buf.Write(data)
	}
	buf.WriteByte('\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeOutput, "failed to write record", err)
	}
	return nil
}

// PrintValues 每个值输出一行，换行符转义
func (p *Printer) PrintValues(values []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, v := range values {
		if _, err := io.WriteString(p.w, lineEscaper.Replace(v)+"\n"); err != nil {
			return errors.Wrap(errors.ErrCodeOutput, "failed to write value", err)
		}
	}
	return nil
}
