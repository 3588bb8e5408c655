package extract

import "testing"

func TestParseDNSList(t *testing.T) {
	t.Parallel()
	panel := `<div><ul class="ip_list">
<li><span class="ml-3">1.2.3.4</span><span class="text-primary">60%</span></li>
<li><span class="ml-3">5.6.7.8</span></li>
<li><span class="text-primary">40%</span><span class="ml-3"> 9.9.9.9 </span></li>
</ul></div>`

	stats, err := ParseDNSList(panel)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats=%d", len(stats))
	}
	if stats[0].IP != "1.2.3.4" || stats[0].Percent != "60%" {
		t.Fatalf("first=%+v", stats[0])
	}
	if stats[1].IP != "9.9.9.9" || stats[1].Percent != "40%" {
		t.Fatalf("second=%+v", stats[1])
	}
}

func TestParseDNSListEmpty(t *testing.T) {
	t.Parallel()
	stats, err := ParseDNSList("<div>无解析数据</div>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("stats=%d", len(stats))
	}
}
