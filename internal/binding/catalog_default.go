package binding

const (
	ComponentUuid ComponentType = iota
	ComponentUuidToHandleMapping
	ComponentTransform
	ComponentHealth
	ComponentLevel
	ComponentArmor
	ComponentStats
	ComponentDisplayName
	ComponentDamageEvent
)

const (
	QueryUuidToHandleMapping QueryType = iota
)

const (
	SystemUI SystemType = iota
	SystemCharacterManager
)

const (
	ResourceRace ResourceManagerType = iota
	ResourceClassDescription
	ResourceProgression
)

// UuidMappingQueryName is the engine name of the query that finds the GUID
// mapping component.
const UuidMappingQueryName = QuerySpecPrefix +
	"struct ls::TypeList<struct ls::uuid::ToHandleMappingComponent>,struct ls::TypeList<>,struct ls::TypeList<>," +
	"struct ls::TypeList<>,struct ls::TypeList<>,struct ls::TypeList<>,struct ecs::QueryTypePersistentTag,struct ecs::QueryTypeAliveTag>"

var healthSchema = &Schema{Fields: []Field{
	{Name: "Hp", Offset: 0, Kind: FieldInt32},
	{Name: "MaxHp", Offset: 4, Kind: FieldInt32},
	{Name: "TemporaryHp", Offset: 8, Kind: FieldInt32},
	{Name: "MaxTemporaryHp", Offset: 12, Kind: FieldInt32},
	{Name: "IsInvulnerable", Offset: 16, Kind: FieldBool},
}}

var transformSchema = &Schema{Fields: []Field{
	{Name: "RotationX", Offset: 0, Kind: FieldFloat32},
	{Name: "RotationY", Offset: 4, Kind: FieldFloat32},
	{Name: "RotationZ", Offset: 8, Kind: FieldFloat32},
	{Name: "RotationW", Offset: 12, Kind: FieldFloat32},
	{Name: "TranslateX", Offset: 16, Kind: FieldFloat32},
	{Name: "TranslateY", Offset: 20, Kind: FieldFloat32},
	{Name: "TranslateZ", Offset: 24, Kind: FieldFloat32},
	{Name: "ScaleX", Offset: 28, Kind: FieldFloat32},
	{Name: "ScaleY", Offset: 32, Kind: FieldFloat32},
	{Name: "ScaleZ", Offset: 36, Kind: FieldFloat32},
}}

var armorSchema = &Schema{Fields: []Field{
	{Name: "ArmorType", Offset: 0, Kind: FieldInt32},
	{Name: "ArmorClass", Offset: 4, Kind: FieldInt32},
	{Name: "AbilityModifierCap", Offset: 8, Kind: FieldInt32},
	{Name: "Shield", Offset: 12, Kind: FieldBool},
}}

var statsSchema = &Schema{Fields: []Field{
	{Name: "Strength", Offset: 0, Kind: FieldInt32},
	{Name: "Dexterity", Offset: 4, Kind: FieldInt32},
	{Name: "Constitution", Offset: 8, Kind: FieldInt32},
	{Name: "Intelligence", Offset: 12, Kind: FieldInt32},
	{Name: "Wisdom", Offset: 16, Kind: FieldInt32},
	{Name: "Charisma", Offset: 20, Kind: FieldInt32},
	{Name: "ProficiencyBonus", Offset: 24, Kind: FieldInt32},
	{Name: "SpellCastingAbility", Offset: 28, Kind: FieldUint32},
}}

var damageEventSchema = &Schema{Fields: []Field{
	{Name: "Target", Offset: 0, Kind: FieldHandle},
	{Name: "Source", Offset: 8, Kind: FieldHandle},
	{Name: "Amount", Offset: 16, Kind: FieldInt32},
	{Name: "Critical", Offset: 20, Kind: FieldBool},
}}

// DefaultCatalog is the component, query, system and resource table the
// engine ships with.
var DefaultCatalog = MustCatalog(CatalogDef{
	Components: []ComponentDescriptor{
		{Type: ComponentUuid, Name: "Uuid", EngineClass: "ls::uuid::Component", Size: 16},
		{Type: ComponentUuidToHandleMapping, Name: "UuidToHandleMapping", EngineClass: "ls::uuid::ToHandleMappingComponent", Proxy: true},
		{Type: ComponentTransform, Name: "Transform", EngineClass: "ls::TransformComponent", Size: 40, Schema: transformSchema},
		{Type: ComponentHealth, Name: "Health", EngineClass: "eoc::HealthComponent", Size: 20, Schema: healthSchema},
		{Type: ComponentLevel, Name: "Level", EngineClass: "eoc::LevelComponent", Size: 4, Schema: &Schema{Fields: []Field{{Name: "Level", Kind: FieldInt32}}}},
		{Type: ComponentArmor, Name: "Armor", EngineClass: "eoc::ArmorComponent", Size: 16, Schema: armorSchema},
		{Type: ComponentStats, Name: "Stats", EngineClass: "eoc::StatsComponent", Size: 32, Schema: statsSchema},
		{Type: ComponentDisplayName, Name: "DisplayName", EngineClass: "eoc::DisplayNameComponent", Proxy: true},
		{Type: ComponentDamageEvent, Name: "DamageEvent", EngineClass: "esv::DamageEventOneFrameComponent", Size: 24, Schema: damageEventSchema},
	},
	Queries: []QueryDescriptor{
		{Type: QueryUuidToHandleMapping, Name: "UuidToHandleMapping", EngineName: UuidMappingQueryName},
	},
	Systems: []SystemDescriptor{
		{Type: SystemUI, Name: "UISystem", EngineName: "ecl::UISystem"},
		{Type: SystemCharacterManager, Name: "CharacterManager", EngineName: "esv::CharacterManager"},
	},
	Resources: []ResourceDescriptor{
		{Type: ResourceRace, Name: "Race", EngineName: "resource::Race"},
		{Type: ResourceClassDescription, Name: "ClassDescription", EngineName: "resource::ClassDescription"},
		{Type: ResourceProgression, Name: "Progression", EngineName: "resource::Progression"},
	},
	Guid: &GuidMapping{Query: QueryUuidToHandleMapping, Component: ComponentUuidToHandleMapping},
})
