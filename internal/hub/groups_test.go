package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"auction-hub/pkg/logger"
)

func TestGroupAddAndMembers(t *testing.T) {
	groups := NewSessionGroups(logger.NewNop())
	a, b := &fakeConn{}, &fakeConn{}

	groups.Add("session-1", "display-a", a)
	groups.Add("session-1", "display-b", b)
	groups.Add("session-2", "display-a", a)

	assert.Len(t, groups.Members("session-1"), 2)
	assert.ElementsMatch(t, []string{"display-a", "display-b"}, groups.MemberIDs("session-1"))
	assert.Len(t, groups.Members("session-2"), 1)
	assert.Empty(t, groups.Members("session-3"))
}

func TestGroupRemoveEverywhere(t *testing.T) {
	groups := NewSessionGroups(logger.NewNop())
	a, b := &fakeConn{}, &fakeConn{}

	groups.Add("session-1", "display-a", a)
	groups.Add("session-1", "display-b", b)
	groups.Add("session-2", "display-a", a)

	groups.RemoveEverywhere("display-a")

	assert.ElementsMatch(t, []string{"display-b"}, groups.MemberIDs("session-1"))
	assert.Empty(t, groups.MemberIDs("session-2"))
}

func TestGroupClear(t *testing.T) {
	groups := NewSessionGroups(logger.NewNop())
	groups.Add("session-1", "display-a", &fakeConn{})
	groups.Add("session-1", "display-b", &fakeConn{})

	groups.Clear("session-1")
	assert.Empty(t, groups.Members("session-1"))
}

func TestGroupMemberLookup(t *testing.T) {
	groups := NewSessionGroups(logger.NewNop())
	a := &fakeConn{}
	groups.Add("session-1", "display-a", a)

	assert.NotNil(t, groups.Member("session-1", "display-a"))
	assert.Nil(t, groups.Member("session-1", "display-b"))
	assert.Nil(t, groups.Member("session-9", "display-a"))
}

func TestDispatcherToSessionGroup(t *testing.T) {
	log := logger.NewNop()
	registry := NewRegistry(log)
	groups := NewSessionGroups(log)
	dispatcher := NewDispatcher(registry, groups, log)

	a, b, outsider := &fakeConn{}, &fakeConn{}, &fakeConn{}
	groups.Add("session-1", "display-a", a)
	groups.Add("session-1", "display-b", b)
	groups.Add("session-2", "display-c", outsider)

	dispatcher.ToSessionGroup("session-1", "ChangeView", map[string]string{"view": "Bidding"})

	assert.Equal(t, []string{"ChangeView"}, a.events())
	assert.Equal(t, []string{"ChangeView"}, b.events())
	assert.Empty(t, outsider.events())
}

func TestDispatcherToOtherPanels(t *testing.T) {
	log := logger.NewNop()
	registry := NewRegistry(log)
	dispatcher := NewDispatcher(registry, NewSessionGroups(log), log)

	me, peer := &fakeConn{}, &fakeConn{}
	registry.ConnectPanel("operator-1", me)
	registry.ConnectPanel("operator-2", peer)

	dispatcher.ToOtherPanels("operator-1", "PeerDisplayGroupSelected", nil)

	assert.Empty(t, me.events())
	assert.Equal(t, []string{"PeerDisplayGroupSelected"}, peer.events())
}
