package ner

import (
	"reflect"
	"testing"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/services/markets"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(markets.NewNormalizer(common.DefaultDictionaries()))
}

func TestExtractSpansOrganizations(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name string
		text string
		want []interfaces.Span
	}{
		{
			name: "dictionary company",
			text: "HDFC Bank reported strong Q3 earnings",
			want: []interfaces.Span{
				{Text: "HDFC Bank", Type: interfaces.SpanTypeOrg},
			},
		},
		{
			name: "suffix pattern outside dictionary",
			text: "Adani Enterprises plans a major expansion",
			want: []interfaces.Span{
				{Text: "Adani Enterprises", Type: interfaces.SpanTypeOrg},
			},
		},
		{
			name: "dictionary wins over suffix pattern",
			text: "Yes Bank and ICICI Bank fell in early trade",
			want: []interfaces.Span{
				{Text: "Yes Bank", Type: interfaces.SpanTypeOrg},
				{Text: "ICICI Bank", Type: interfaces.SpanTypeOrg},
			},
		},
		{
			name: "multiple dictionary companies in order",
			text: "Infosys and Wipro won new contracts",
			want: []interfaces.Span{
				{Text: "Infosys", Type: interfaces.SpanTypeOrg},
				{Text: "Wipro", Type: interfaces.SpanTypeOrg},
			},
		},
		{
			name: "no entities",
			text: "the market rallied in afternoon trade",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.ExtractSpans(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractSpans(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractSpansPersons(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name string
		text string
		want []interfaces.Span
	}{
		{
			name: "honorific single name",
			text: "Mr Sharma announced the results",
			want: []interfaces.Span{
				{Text: "Sharma", Type: interfaces.SpanTypePerson},
			},
		},
		{
			name: "title with multi-word name",
			text: "Chairman Kumar Birla announced the merger",
			want: []interfaces.Span{
				{Text: "Kumar Birla", Type: interfaces.SpanTypePerson},
			},
		},
		{
			name: "governor title",
			text: "Governor Das said rates will hold",
			want: []interfaces.Span{
				{Text: "Das", Type: interfaces.SpanTypePerson},
			},
		},
		{
			name: "company honorific is not a person",
			text: "Dr. Reddy's wins approval, Dr Mehta to lead the trials",
			want: []interfaces.Span{
				{Text: "Dr. Reddy's", Type: interfaces.SpanTypeOrg},
				{Text: "Mehta", Type: interfaces.SpanTypePerson},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.ExtractSpans(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractSpans(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractSpansMixed(t *testing.T) {
	svc := newTestService(t)

	got := svc.ExtractSpans("Mr Modi met Infosys and Tata Motors executives")
	want := []interfaces.Span{
		{Text: "Modi", Type: interfaces.SpanTypePerson},
		{Text: "Infosys", Type: interfaces.SpanTypeOrg},
		{Text: "Tata Motors", Type: interfaces.SpanTypeOrg},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractSpans() = %v, want %v", got, want)
	}
}
