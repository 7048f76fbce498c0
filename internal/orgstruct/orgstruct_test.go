package orgstruct

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Collect(t *testing.T) {
	collector := NewCollector()

	records := []SpanRecord{
		{Text: "  0100   Department of Labor  ", X: 40, Y: 100, Page: 1},
		{Text: "Organizational Structure", X: 40, Y: 80, Page: 1},
		{Text: "1001\tUnit A1", X: 130, Y: 120, Page: 1},
		{Text: "123 Not a code", X: 40, Y: 140, Page: 1},
		{Text: "12345 Too many digits", X: 40, Y: 150, Page: 1},
		{Text: "0200", X: 42, Y: 160, Page: 1},
		{Text: "0300 Dept C", X: math.NaN(), Y: math.Inf(1), Page: 2},
	}

	spans := collector.Collect(records)
	require.Len(t, spans, 3)

	assert.Equal(t, CodedSpan{Code: "0100", Description: "Department of Labor", X: 40, Y: 100, Page: 1}, spans[0])
	assert.Equal(t, CodedSpan{Code: "1001", Description: "Unit A1", X: 130, Y: 120, Page: 1}, spans[1])
	assert.Equal(t, "0300", spans[2].Code)
	assert.Equal(t, 0.0, spans[2].X, "non-finite coordinates fall back to zero")
	assert.Equal(t, 0.0, spans[2].Y)
	assert.Equal(t, 2, spans[2].Page)
}

func TestCollector_Match(t *testing.T) {
	collector := NewCollector()

	tests := []struct {
		name     string
		text     string
		match    bool
		code     string
		descript string
	}{
		{name: "code and description", text: "4100 Office of the Director", match: true, code: "4100", descript: "Office of the Director"},
		{name: "multiple spaces kept in description", text: "4100  A  B", match: true, code: "4100", descript: "A  B"},
		{name: "code only", text: "4100", match: false},
		{name: "code glued to text", text: "4100Office", match: false},
		{name: "letters first", text: "A100 Office", match: false},
		{name: "empty", text: "", match: false},
		{name: "non-ascii digits", text: "٤١٠٠ Office", match: false},
		{name: "tab separator", text: "0100\tDept A", match: true, code: "0100", descript: "Dept A"},
		{name: "no-break space separator", text: "0100\u00a0Dept A", match: true, code: "0100", descript: "Dept A"},
		{name: "em space separator", text: "0100\u2003Dept A", match: true, code: "0100", descript: "Dept A"},
		{name: "mixed separators", text: "1001 \u00a0\u2003Unit A1", match: true, code: "1001", descript: "Unit A1"},
		{name: "no-break space only", text: "0100\u00a0", match: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, ok := collector.Match(SpanRecord{Text: tt.text, X: 10, Page: 1})
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.code, span.Code)
				assert.Equal(t, tt.descript, span.Description)
			}
		})
	}
}

func TestClusterPositions_Empty(t *testing.T) {
	assert.Nil(t, ClusterPositions(nil, DefaultGapThreshold))
	assert.Nil(t, ClusterPositions([]float64{}, DefaultGapThreshold))
}

func TestClusterPositions_GapBoundary(t *testing.T) {
	// 15 apart stays together, 15.5 apart splits
	clusters := ClusterPositions([]float64{70.5, 40, 55}, 15)
	require.Len(t, clusters, 2)
	assert.Equal(t, []float64{40, 55}, clusters[0].Members)
	assert.Equal(t, []float64{70.5}, clusters[1].Members)
}

func TestClusterPositions_DoesNotMutateInput(t *testing.T) {
	xs := []float64{130, 40, 42}
	ClusterPositions(xs, 15)
	assert.Equal(t, []float64{130, 40, 42}, xs)
}

func TestClusterPositions_PartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		n := 1 + rng.Intn(200)
		xs := make([]float64, n)
		for i := range xs {
			// a few indentation bands plus jitter
			xs[i] = float64(rng.Intn(5))*60 + rng.Float64()*12
		}

		clusters := ClusterPositions(xs, DefaultGapThreshold)
		require.NotEmpty(t, clusters)

		var flattened []float64
		for ci, c := range clusters {
			require.NotEmpty(t, c.Members, "clusters are never empty")
			for i := 1; i < len(c.Members); i++ {
				assert.LessOrEqual(t, c.Members[i]-c.Members[i-1], DefaultGapThreshold)
			}
			if ci > 0 {
				assert.Greater(t, c.Min()-clusters[ci-1].Max(), DefaultGapThreshold)
			}
			flattened = append(flattened, c.Members...)
		}

		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)
		assert.Equal(t, sorted, flattened, "every coordinate belongs to exactly one cluster")

		again := ClusterPositions(xs, DefaultGapThreshold)
		assert.Equal(t, clusters, again, "clustering is deterministic")
	}
}

func TestPositionCluster_Median(t *testing.T) {
	assert.Equal(t, 41.0, PositionCluster{Members: []float64{40, 42}}.Median())
	assert.Equal(t, 42.0, PositionCluster{Members: []float64{40, 42, 50}}.Median())
	assert.Equal(t, 130.0, PositionCluster{Members: []float64{130}}.Median())
	assert.Equal(t, 0.0, median(nil))
}

func TestDeriveThresholds_MedianOrdering(t *testing.T) {
	// raw coordinates in arbitrary order
	clusters := ClusterPositions([]float64{300, 50, 120}, DefaultGapThreshold)
	thresholds := DeriveThresholds(clusters, DefaultHalfWidth, DefaultLevels)

	require.Len(t, thresholds, 3)
	assert.Equal(t, LevelThreshold{Level: LevelAgency, Median: 50, Min: 40, Max: 60}, thresholds[0])
	assert.Equal(t, LevelThreshold{Level: LevelDepartment, Median: 120, Min: 110, Max: 130}, thresholds[1])
	assert.Equal(t, LevelThreshold{Level: LevelSubDepartment, Median: 300, Min: 290, Max: 310}, thresholds[2])
}

func TestDeriveThresholds_AtMostFourLevels(t *testing.T) {
	clusters := ClusterPositions([]float64{0, 100, 200, 300, 400, 500}, DefaultGapThreshold)
	require.Len(t, clusters, 6)

	thresholds := DeriveThresholds(clusters, DefaultHalfWidth, DefaultLevels)
	require.Len(t, thresholds, 4)
	assert.Equal(t, "A:[-10,10] 1:[90,110] 2:[190,210] 3:[290,310]", thresholds.String())

	// spans of the unlabeled clusters fall back to the nearest interval
	assert.Equal(t, LevelUnit, thresholds.Classify(400))
	assert.Equal(t, LevelUnit, thresholds.Classify(500))
}

func TestThresholds_ClassifyOverlapUsesLabelOrder(t *testing.T) {
	thresholds := Thresholds{
		{Level: LevelAgency, Median: 10, Min: 0, Max: 20},
		{Level: LevelDepartment, Median: 20, Min: 10, Max: 30},
	}

	// 18 is nearer the department median but the agency interval is tested first
	assert.Equal(t, LevelAgency, thresholds.Classify(18))
	assert.Equal(t, LevelAgency, thresholds.Classify(10))
	assert.Equal(t, LevelAgency, thresholds.Classify(20))
	assert.Equal(t, LevelDepartment, thresholds.Classify(20.5))
}

func TestThresholds_ClassifyFallback(t *testing.T) {
	thresholds := Thresholds{
		{Level: LevelAgency, Median: 41, Min: 31, Max: 51},
		{Level: LevelDepartment, Median: 130, Min: 120, Max: 140},
	}

	tests := []struct {
		name string
		x    float64
		want Level
	}{
		{name: "inside agency", x: 31, want: LevelAgency},
		{name: "inside department", x: 140, want: LevelDepartment},
		{name: "far left", x: -500, want: LevelAgency},
		{name: "far right", x: 10000, want: LevelDepartment},
		{name: "between, nearer agency", x: 85, want: LevelAgency},
		{name: "between, nearer department", x: 86, want: LevelDepartment},
		{name: "equidistant goes to earlier label", x: 85.5, want: LevelAgency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, thresholds.Classify(tt.x))
		})
	}
}

func TestThresholds_ClassifyNeverUnknownWithThresholds(t *testing.T) {
	thresholds := Thresholds{{Level: LevelSubDepartment, Median: 200, Min: 190, Max: 210}}
	for _, x := range []float64{-1e9, 0, 189.99, 210.01, 1e9} {
		assert.Equal(t, LevelSubDepartment, thresholds.Classify(x))
	}
}

func TestThresholds_ClassifyUnknownWithoutThresholds(t *testing.T) {
	var thresholds Thresholds
	assert.Equal(t, LevelUnknown, thresholds.Classify(42))
}

func TestInferencer_EndToEnd(t *testing.T) {
	spans := []CodedSpan{
		{Code: "0100", Description: "Dept A", X: 40, Page: 1},
		{Code: "1001", Description: "Unit A1", X: 130, Page: 1},
		{Code: "0200", Description: "Dept B", X: 42, Page: 2},
	}

	result := NewInferencer().Infer(spans)

	require.Len(t, result.Clusters, 2)
	assert.Equal(t, 41.0, result.Clusters[0].Median())
	assert.Equal(t, 130.0, result.Clusters[1].Median())
	assert.Equal(t, "A:[31,51] 1:[120,140]", result.Thresholds.String())

	want := []StructuredItem{
		{Level: LevelAgency, Code: "0100", Description: "Dept A", XPosition: 40, Page: 1},
		{Level: LevelDepartment, Code: "1001", Description: "Unit A1", XPosition: 130, Page: 1},
		{Level: LevelAgency, Code: "0200", Description: "Dept B", XPosition: 42, Page: 2},
	}
	assert.Equal(t, want, result.Items)
	assert.False(t, result.HasUnknown())
	assert.Equal(t, map[Level]int{LevelAgency: 2, LevelDepartment: 1}, result.LevelCounts())
}

func TestInferencer_EmptyDocument(t *testing.T) {
	result := NewInferencer().Infer(nil)
	require.NotNil(t, result)
	assert.True(t, result.IsEmpty())
	assert.Empty(t, result.Items)
	assert.Empty(t, result.Clusters)
	assert.Empty(t, result.Thresholds)
}

func TestInferencer_OrderingIsDeterministic(t *testing.T) {
	spans := []CodedSpan{
		{Code: "0200", Description: "B", X: 40, Page: 2},
		{Code: "0100", Description: "A", X: 40, Page: 2},
		{Code: "0099", Description: "Z", X: 70, Page: 2},
		{Code: "1000", Description: "first", X: 40, Page: 1},
		{Code: "1000", Description: "second", X: 70, Page: 1},
	}

	inf := NewInferencer()
	first := inf.Infer(spans)
	second := inf.Infer(spans)
	assert.Equal(t, first.Items, second.Items)

	var order []string
	for _, item := range first.Items {
		order = append(order, item.Code+"/"+item.Description)
	}
	// equal keys keep their input order
	assert.Equal(t, []string{"1000/first", "1000/second", "0099/Z", "0100/A", "0200/B"}, order)
}

func TestNewInferencerWithConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{name: "defaults", config: DefaultConfig()},
		{name: "zero gap", config: Config{GapThreshold: 0, HalfWidth: 10, Levels: DefaultLevels}, wantErr: "gap threshold"},
		{name: "negative half width", config: Config{GapThreshold: 15, HalfWidth: -1, Levels: DefaultLevels}, wantErr: "half width"},
		{name: "no levels", config: Config{GapThreshold: 15, HalfWidth: 10}, wantErr: "at least one level"},
		{name: "duplicate levels", config: Config{GapThreshold: 15, HalfWidth: 10, Levels: []Level{"A", "A"}}, wantErr: "duplicate"},
		{name: "unknown as label", config: Config{GapThreshold: 15, HalfWidth: 10, Levels: []Level{LevelUnknown}}, wantErr: "cannot be used"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inf, err := NewInferencerWithConfig(tt.config)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, inf)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.config, inf.Config())
		})
	}
}

func TestInferencer_CustomGapAndWidth(t *testing.T) {
	inf, err := NewInferencerWithConfig(Config{GapThreshold: 5, HalfWidth: 2, Levels: DefaultLevels})
	require.NoError(t, err)

	result := inf.Infer([]CodedSpan{
		{Code: "0001", X: 40, Page: 1},
		{Code: "0002", X: 48, Page: 1},
	})
	require.Len(t, result.Clusters, 2)
	assert.Equal(t, "A:[38,42] 1:[46,50]", result.Thresholds.String())
	assert.Equal(t, LevelAgency, result.Items[0].Level)
	assert.Equal(t, LevelDepartment, result.Items[1].Level)
}

func TestWalk(t *testing.T) {
	items := []StructuredItem{
		{Level: LevelAgency, Code: "0100"},
		{Level: LevelDepartment, Code: "1100"},
		{Level: LevelSubDepartment, Code: "1110"},
		{Level: LevelUnit, Code: "1111"},
		{Level: LevelDepartment, Code: "1200"},
		{Level: LevelUnknown, Code: "9999"},
		{Level: LevelAgency, Code: "0200"},
	}

	entries := Walk(items)
	require.Len(t, entries, len(items))

	assert.Equal(t, Context{Agency: "0100"}, entries[0].Context)
	assert.Equal(t, Context{Agency: "0100", Department: "1100"}, entries[1].Context)
	assert.Equal(t, Context{Agency: "0100", Department: "1100", SubDepartment: "1110"}, entries[2].Context)
	assert.Equal(t, Context{Agency: "0100", Department: "1100", SubDepartment: "1110"}, entries[3].Context)
	assert.Equal(t, Context{Agency: "0100", Department: "1200"}, entries[4].Context, "new department clears sub-department")
	assert.Equal(t, Context{Agency: "0100", Department: "1200"}, entries[5].Context)
	assert.Equal(t, Context{Agency: "0200"}, entries[6].Context, "new agency clears everything below")

	for i, e := range entries {
		assert.Equal(t, items[i], e.Item, "walking never relabels")
	}
}

func TestLevel_NameAndDepth(t *testing.T) {
	assert.Equal(t, "agency", LevelAgency.Name())
	assert.Equal(t, "unit", LevelUnit.Name())
	assert.Equal(t, "unknown", LevelUnknown.Name())
	assert.Equal(t, 0, LevelAgency.Depth())
	assert.Equal(t, 3, LevelUnit.Depth())
	assert.Equal(t, -1, LevelUnknown.Depth())
}

func TestResult_LevelSummary(t *testing.T) {
	result := &Result{Items: []StructuredItem{
		{Level: LevelDepartment},
		{Level: LevelUnknown},
		{Level: LevelAgency},
		{Level: LevelDepartment},
		{Level: LevelUnit},
	}}

	assert.Equal(t, "A=1 1=2 3=1 Unknown=1", result.LevelSummary())
	assert.Equal(t, map[Level]int{LevelAgency: 1, LevelDepartment: 2, LevelUnit: 1, LevelUnknown: 1}, result.LevelCounts())
	assert.True(t, result.HasUnknown())

	var empty *Result
	assert.Equal(t, "", empty.LevelSummary())
	assert.False(t, empty.HasUnknown())
	assert.True(t, empty.IsEmpty())
}
