package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/mirador-pcap/internal/models"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

var (
	poolNow = time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)
	t0      = time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)
)

func newTestPool(max int) *CapturePool {
	return NewCapturePool(PoolPolicy{MaxCaptures: max, TimeLimitSeconds: 15, NameMaxLength: 50},
		func() time.Time { return poolNow }, logger.NewNop())
}

func poolFixture(n int) (*fakeControlPlane, models.DiagnosticsEndpoint) {
	fake := newFakeControlPlane()
	ep := fake.addWatcher("NetworkWatcher_eastus", "eastus")
	for i := 0; i < n; i++ {
		fake.addCapture(ep.Name, fmt.Sprintf("cap-%02d", i), t0.Add(time.Duration(i+1)*time.Minute))
	}
	return fake, ep
}

func testTarget() *models.ComputeTarget {
	return &models.ComputeTarget{ID: testVMID, Name: "web-01", Region: "eastus"}
}

func testStorage() *models.StorageTarget {
	return &models.StorageTarget{ID: testStorageID, Name: "pcaps"}
}

func TestCaptureName(t *testing.T) {
	assert.Equal(t, "web-0120240307150405", CaptureName("web-01", 50, poolNow))

	long := strings.Repeat("v", 80)
	name := CaptureName(long, 50, poolNow)
	assert.Equal(t, strings.Repeat("v", 50)+"20240307150405", name)
	assert.Len(t, name, 64)

	// converted to UTC and formatted on a 24h clock
	pst := time.FixedZone("PST", -8*3600)
	assert.Equal(t, "vm20240307230000", CaptureName("vm", 50, time.Date(2024, 3, 7, 15, 0, 0, 0, pst)))

	// rune-safe truncation
	assert.Equal(t, "ñññ20240307150405", CaptureName("ññññ", 3, poolNow))
}

func TestRotateAndCreate_BelowLimitNoEviction(t *testing.T) {
	fake, ep := poolFixture(9)

	record, evicted, err := newTestPool(10).RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
	require.NoError(t, err)
	assert.Empty(t, evicted)
	assert.Equal(t, "web-0120240307150405", record.Name)
	assert.Equal(t, int32(15), record.TimeLimitSeconds)
	assert.Equal(t, testStorageID, record.StorageID)
	assert.Len(t, fake.captureNames(ep.Name), 10)
	assert.Zero(t, fake.callCount("DeleteCapture"))
	assert.Zero(t, fake.callCount("GetCaptureStatus"))
}

func TestRotateAndCreate_FullPoolEvictsExactlyOne(t *testing.T) {
	fake, ep := poolFixture(10)

	_, evicted, err := newTestPool(10).RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
	require.NoError(t, err)
	assert.Equal(t, "cap-00", evicted)
	assert.Equal(t, 1, fake.callCount("DeleteCapture"))
	assert.Equal(t, 10, fake.callCount("GetCaptureStatus"))

	names := fake.captureNames(ep.Name)
	assert.Len(t, names, 10)
	assert.NotContains(t, names, "cap-00")
	assert.Contains(t, names, "web-0120240307150405")
}

func TestRotateAndCreate_DeletesEarliestNotFirstListed(t *testing.T) {
	fake := newFakeControlPlane()
	ep := fake.addWatcher("NetworkWatcher_eastus", "eastus")
	fake.addCapture(ep.Name, "third", t0.Add(3*time.Hour))
	fake.addCapture(ep.Name, "first", t0.Add(1*time.Hour))
	fake.addCapture(ep.Name, "second", t0.Add(2*time.Hour))

	_, evicted, err := newTestPool(3).RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
	require.NoError(t, err)
	assert.Equal(t, "first", evicted)
	assert.ElementsMatch(t, []string{"third", "second", "web-0120240307150405"}, fake.captureNames(ep.Name))
}

func TestRotateAndCreate_NeverStartedRanksFirst(t *testing.T) {
	fake := newFakeControlPlane()
	ep := fake.addWatcher("NetworkWatcher_eastus", "eastus")
	fake.addCapture(ep.Name, "running", t0)
	fake.addCapture(ep.Name, "pending", time.Time{})

	_, evicted, err := newTestPool(2).RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
	require.NoError(t, err)
	assert.Equal(t, "pending", evicted)
}

func TestRotateAndCreate_TiesKeepListOrder(t *testing.T) {
	fake := newFakeControlPlane()
	ep := fake.addWatcher("NetworkWatcher_eastus", "eastus")
	fake.addCapture(ep.Name, "b", t0)
	fake.addCapture(ep.Name, "a", t0)

	_, evicted, err := newTestPool(2).RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
	require.NoError(t, err)
	assert.Equal(t, "b", evicted)
}

func TestRotateAndCreate_OverFullStillEvictsOne(t *testing.T) {
	fake, ep := poolFixture(12)

	_, _, err := newTestPool(10).RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
	require.NoError(t, err)
	assert.Equal(t, 1, fake.callCount("DeleteCapture"))
	assert.Len(t, fake.captureNames(ep.Name), 12)
}

func TestRotateAndCreate_StatusFailurePreventsDelete(t *testing.T) {
	fake, ep := poolFixture(10)
	fake.fail["GetCaptureStatus:cap-04"] = errors.New("status unavailable")

	_, _, err := newTestPool(10).RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
	require.Error(t, err)
	assert.Equal(t, models.KindProvisioning, models.KindOf(err))
	assert.Zero(t, fake.callCount("DeleteCapture"))
	assert.Zero(t, fake.callCount("CreateCapture"))
	assert.Len(t, fake.captureNames(ep.Name), 10)
}

func TestRotateAndCreate_DeleteFailurePreventsCreate(t *testing.T) {
	fake, ep := poolFixture(10)
	fake.fail["DeleteCapture"] = errors.New("conflict")

	_, _, err := newTestPool(10).RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
	require.Error(t, err)
	assert.Equal(t, models.KindProvisioning, models.KindOf(err))
	assert.Contains(t, err.Error(), "cap-00")
	assert.Zero(t, fake.callCount("CreateCapture"))
}

func TestRotateAndCreate_ListAndCreateFailures(t *testing.T) {
	for _, op := range []string{"ListCaptures", "CreateCapture"} {
		t.Run(op, func(t *testing.T) {
			fake, ep := poolFixture(1)
			fake.fail[op] = errors.New("service unavailable")

			_, _, err := newTestPool(10).RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
			require.Error(t, err)
			assert.Equal(t, models.KindProvisioning, models.KindOf(err))
			assert.Equal(t, 1, fake.callCount(op))
		})
	}
}

func TestRotateAndCreate_RequestShape(t *testing.T) {
	m := new(mockControlPlane)
	ep := models.DiagnosticsEndpoint{Name: "NetworkWatcher_eastus", Region: "eastus"}
	want := models.CaptureRequest{
		Name:             "web-0120240307150405",
		TargetID:         testVMID,
		StorageID:        testStorageID,
		TimeLimitSeconds: 15,
	}
	m.On("ListCaptures", mock.Anything, ep).Return([]models.CaptureRecord{}, nil)
	m.On("CreateCapture", mock.Anything, ep, want).Return(&models.CaptureRecord{Name: want.Name}, nil).Once()

	_, _, err := newTestPool(10).RotateAndCreate(context.Background(), m, ep, testTarget(), testStorage())
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestNewCapturePool_ClampsUnusablePolicy(t *testing.T) {
	pool := NewCapturePool(PoolPolicy{MaxCaptures: 0, NameMaxLength: -5}, func() time.Time { return poolNow }, nil)
	assert.Equal(t, 1, pool.policy.MaxCaptures)
	assert.Equal(t, 50, pool.policy.NameMaxLength)
	assert.Equal(t, int32(15), pool.policy.TimeLimitSeconds)

	t.Run("empty pool", func(t *testing.T) {
		fake, ep := poolFixture(0)
		record, evicted, err := pool.RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
		require.NoError(t, err)
		assert.Empty(t, evicted)
		assert.Equal(t, "web-0120240307150405", record.Name)
	})

	t.Run("single slot rotates", func(t *testing.T) {
		fake, ep := poolFixture(1)
		_, evicted, err := pool.RotateAndCreate(context.Background(), fake, ep, testTarget(), testStorage())
		require.NoError(t, err)
		assert.Equal(t, "cap-00", evicted)
		assert.Len(t, fake.captureNames(ep.Name), 1)
	})
}

func TestCaptureName_NegativeLengthKeepsTimestamp(t *testing.T) {
	assert.Equal(t, "20240307150405", CaptureName("web-01", -1, poolNow))
}
