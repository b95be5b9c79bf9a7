package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := Report{
		ID:         "r1",
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Items: []ItemResult{
			{Index: 2, Input: "c", Status: StatusFailed},
			{Index: 0, Input: "a", Status: StatusGenerated},
			{Index: 1, Input: "b", Status: StatusPlanned},
		},
	}

	r.Finalize()

	if r.Items[0].Input != "a" || r.Items[1].Input != "b" || r.Items[2].Input != "c" {
		t.Fatalf("items 排序不符合契约：%+v", r.Items)
	}
	if r.Summary.Generated != 1 || r.Summary.Planned != 1 || r.Summary.Failed != 1 {
		t.Fatalf("summary 统计不正确：%+v", r.Summary)
	}
	for _, it := range r.Items {
		if it.Messages == nil || it.Files == nil {
			t.Fatalf("messages/files 不应为 nil（JSON 会输出 null）：%+v", it)
		}
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
}
