package extract

import "testing"

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "paragraphs become lines",
			in:   "<html><body><p>Your order has shipped.</p><p>Tracking: ABC123</p></body></html>",
			want: "Your order has shipped.\nTracking: ABC123",
		},
		{
			name: "break tag variants",
			in:   "Line one<br>Line two<br/>Line three<br />Line four",
			want: "Line one\nLine two\nLine three\nLine four",
		},
		{
			name: "entities decoded after tags are gone",
			in:   "<p>Tom &amp; Co &lt;support&gt; say &quot;hi&quot;&nbsp;&#39;now&#39;</p>",
			want: "Tom & Co <support> say \"hi\" 'now'",
		},
		{
			name: "blank runs collapse",
			in:   "<div>A</div><div></div><div></div><div>B</div>",
			want: "A\n\nB",
		},
		{
			name: "plain text untouched",
			in:   "no markup here",
			want: "no markup here",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
