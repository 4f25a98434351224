package binding

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"eoc::HealthComponent", "eoc::HealthComponent"},
		{"struct eoc::HealthComponent", "eoc::HealthComponent"},
		{"class ecl::UISystem", "ecl::UISystem"},
		{"enum eoc::AbilityId", "eoc::AbilityId"},
		{"class ls::_StringView<char> __cdecl ls::GetTypeName<struct eoc::HealthComponent>(void)", "eoc::HealthComponent"},
		{"class ls::_StringView<char> __cdecl ls::GetTypeName<class ecs::ComponentTypeIdContext>(void)", "ecs::ComponentTypeIdContext"},
		{"class ls::_StringView<char> __cdecl ls::GetTypeName<ecs::EntityWorld::SystemsContext>(void)", "ecs::EntityWorld::SystemsContext"},
		{"  struct ls::TransformComponent  ", "ls::TransformComponent"},
		// Only one kind keyword is removed.
		{"struct class Foo", "class Foo"},
		// A bare keyword or suffix is not a name to strip down to nothing.
		{"struct ", "struct"},
		{">(void)", ">(void)"},
		{"", ""},
		{
			"class ls::_StringView<char> __cdecl ls::GetTypeName<struct ecs::query::spec::Spec<struct ls::TypeList<struct ls::uuid::ToHandleMappingComponent>,struct ls::TypeList<> > >(void)",
			"ecs::query::spec::Spec<struct ls::TypeList<struct ls::uuid::ToHandleMappingComponent>,struct ls::TypeList<> >",
		},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Normalize(tc.raw), "raw %q", tc.raw)
	}
}

func TestNormalizeDifferentFormsSameKey(t *testing.T) {
	forms := []string{
		"eoc::ArmorComponent",
		"struct eoc::ArmorComponent",
		"class ls::_StringView<char> __cdecl ls::GetTypeName<struct eoc::ArmorComponent>(void)",
		"class ls::_StringView<char> __cdecl ls::GetTypeName<eoc::ArmorComponent>(void)",
	}
	for _, f := range forms {
		require.Equal(t, "eoc::ArmorComponent", Normalize(f), "form %q", f)
	}
}

func TestNormalizeUnicodeForms(t *testing.T) {
	composed := "mod::Caf\u00e9Component"
	decomposed := "mod::Cafe\u0301Component"
	require.NotEqual(t, composed, decomposed)
	require.Equal(t, Normalize(composed), Normalize("struct "+decomposed))
}
